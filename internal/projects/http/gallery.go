package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arqmanager/portfolio-web/internal/auth/middleware"
)

func (h *Handler) categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"categories": h.catalog.Categories,
		"default":    h.catalog.Default(),
	})
}

// listGallery lists projects, optionally filtered by title with ?q=.
// Signed-in users query the backend with their own token.
func (h *Handler) listGallery(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	items, err := h.gallery.List(c.Request.Context(), h.clients(sessionToken(c)), q)
	if err != nil {
		respondError(c, "gallery_list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) galleryDetail(c *gin.Context) {
	item, err := h.gallery.Detail(c.Request.Context(), h.clients(sessionToken(c)), c.Param("id"))
	if err != nil {
		respondError(c, "gallery_detail", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": item})
}

func sessionToken(c *gin.Context) string {
	return middleware.CurrentSession(c).Token()
}
