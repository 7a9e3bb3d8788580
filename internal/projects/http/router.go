package http

import (
	"github.com/gin-gonic/gin"

	"github.com/arqmanager/portfolio-web/internal/auth/middleware"
)

// RegisterPublic attaches the routes that do not need a session.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	rg.GET("/categories", h.categories)
	rg.GET("/gallery", h.listGallery)
	rg.GET("/gallery/:id", h.galleryDetail)
}

// RegisterProtected attaches the form and project routes. Every route
// requires an authenticated session.
func (h *Handler) RegisterProtected(rg *gin.RouterGroup) {
	rg.Use(middleware.RequireSession())

	forms := rg.Group("/forms")
	forms.POST("", h.openCreate)
	forms.POST("/edit/:projectID", h.openEdit)
	forms.GET("/:formID", h.getForm)
	forms.DELETE("/:formID", h.discardForm)
	forms.POST("/:formID/load", h.loadForm)
	forms.PATCH("/:formID/fields", h.setFields)
	forms.POST("/:formID/attachments", h.addAttachments)
	forms.DELETE("/:formID/attachments/:index", h.removeAttachment)
	forms.GET("/:formID/previews/:handle", h.preview)
	forms.POST("/:formID/submit", h.submit)
	forms.POST("/:formID/confirm", h.confirm)
	forms.POST("/:formID/cancel", h.cancel)

	rg.DELETE("/projects/:id", h.deleteProject)
}
