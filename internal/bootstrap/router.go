package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/arqmanager/portfolio-web/internal/api/http"
	"github.com/arqmanager/portfolio-web/internal/api/http/middleware"
	authhttp "github.com/arqmanager/portfolio-web/internal/auth/http"
	authmw "github.com/arqmanager/portfolio-web/internal/auth/middleware"
	authservice "github.com/arqmanager/portfolio-web/internal/auth/service"
	"github.com/arqmanager/portfolio-web/internal/backend"
	projecthttp "github.com/arqmanager/portfolio-web/internal/projects/http"
	"github.com/arqmanager/portfolio-web/internal/projects/service"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	Redis          *redis.Client
	Backend        *backend.Client
	Sessions       *authservice.SessionService
	Projects       *projecthttp.Handler
	Forms          *service.Registry
	Auth           *authhttp.Handler
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = dep.AllowedOrigins
	corsCfg.AllowCredentials = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", middleware.HeaderRequestID)
	corsCfg.ExposeHeaders = []string{middleware.HeaderRequestID}
	r.Use(cors.New(corsCfg))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, httpapi.HealthSources{
		Redis:     dep.Redis,
		Backend:   dep.Backend.Metrics(),
		OpenForms: dep.Forms.Len,
	})
	healthHandler.RegisterRoutes(r)

	r.Use(authmw.LoadSession(dep.Sessions))

	dep.Auth.Register(r.Group("/auth"))

	dep.Projects.RegisterPublic(r.Group("/api/v1"))
	dep.Projects.RegisterProtected(r.Group("/api/v1"))

	return r
}
