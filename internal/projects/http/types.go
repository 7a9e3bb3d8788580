package http

import (
	"github.com/arqmanager/portfolio-web/internal/backend"
	"github.com/arqmanager/portfolio-web/internal/projects/domain"
	"github.com/arqmanager/portfolio-web/internal/projects/service"
)

// ClientFactory returns the backend client bound to a session token; an
// empty token yields an anonymous client.
type ClientFactory func(token string) backend.ProjectsAPI

// Handler bundles the dependencies for project HTTP endpoints.
type Handler struct {
	forms    *service.Registry
	gallery  *service.GalleryService
	clients  ClientFactory
	catalog  *domain.Catalog
	spoolDir string
}

func New(forms *service.Registry, gallery *service.GalleryService, clients ClientFactory, catalog *domain.Catalog, spoolDir string) *Handler {
	if catalog == nil {
		catalog = domain.DefaultCatalog()
	}
	return &Handler{
		forms:    forms,
		gallery:  gallery,
		clients:  clients,
		catalog:  catalog,
		spoolDir: spoolDir,
	}
}

// BackendClients adapts a backend client to ClientFactory.
func BackendClients(c *backend.Client) ClientFactory {
	return func(token string) backend.ProjectsAPI {
		if token == "" {
			return c
		}
		return c.WithToken(token)
	}
}
