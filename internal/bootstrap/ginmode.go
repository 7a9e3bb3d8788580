package bootstrap

import (
	"log"

	"github.com/gin-gonic/gin"
)

// SetGinMode maps APP_ENV onto gin's modes. Outside production the route table
// is logged once at startup in the same format as the rest of the service.
func SetGinMode(env string) {
	switch env {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.DebugPrintRouteFunc = func(method, path, _ string, _ int) {
			log.Printf("[debug] operation=route method=%s path=%s", method, path)
		}
	}
}
