package http

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arqmanager/portfolio-web/internal/auth/middleware"
	"github.com/arqmanager/portfolio-web/internal/logger"
	"github.com/arqmanager/portfolio-web/internal/projects/attachments"
	"github.com/arqmanager/portfolio-web/internal/projects/domain"
	"github.com/arqmanager/portfolio-web/internal/projects/form"
	"github.com/arqmanager/portfolio-web/internal/projects/service"
)

func owner(c *gin.Context) (string, string) {
	sess := middleware.CurrentSession(c)
	return sess.CurrentUser.ID, sess.Token()
}

// formBody renders the form view together with the pending notifications and
// the scheduled navigation, if any.
func formBody(sess *service.FormSession) gin.H {
	notes := sess.Inbox.Drain()
	if notes == nil {
		notes = []form.Notification{}
	}
	body := gin.H{
		"ok":            true,
		"id":            sess.ID,
		"form":          sess.Controller.View(),
		"notifications": notes,
	}
	if to, after := sess.Redirect.Pending(); to != "" {
		body["redirect"] = gin.H{"to": to, "after_ms": after.Milliseconds()}
	}
	return body
}

// respondForm answers with the form state; err, when set, decides the status
// and is reported next to the form so the client can render field errors.
func respondForm(c *gin.Context, op string, status int, sess *service.FormSession, err error) {
	body := formBody(sess)
	if err != nil {
		var msg string
		status, msg = statusFor(err)
		if status >= http.StatusInternalServerError {
			logger.New(c.Request.Context()).LogError(op, err)
		}
		body["ok"] = false
		body["error"] = msg
	}
	c.JSON(status, body)
}

func (h *Handler) lookup(c *gin.Context) (*service.FormSession, bool) {
	userID, _ := owner(c)
	sess, err := h.forms.Get(userID, c.Param("formID"))
	if err != nil {
		respondError(c, "form_lookup", err)
		return nil, false
	}
	return sess, true
}

func (h *Handler) openCreate(c *gin.Context) {
	userID, token := owner(c)
	sess, err := h.forms.OpenCreate(userID, h.clients(token))
	if err != nil {
		respondError(c, "form_open", err)
		return
	}
	c.JSON(http.StatusCreated, formBody(sess))
}

// openEdit opens an edit form and loads the project right away. A failed
// load still returns the form, in load_failed, so the client can retry.
func (h *Handler) openEdit(c *gin.Context) {
	userID, token := owner(c)
	sess, err := h.forms.OpenEdit(userID, c.Param("projectID"), h.clients(token))
	if err != nil {
		respondError(c, "form_open", err)
		return
	}

	err = sess.Controller.Load(c.Request.Context())
	respondForm(c, "form_load", http.StatusCreated, sess, err)
}

func (h *Handler) getForm(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, formBody(sess))
}

func (h *Handler) loadForm(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	err := sess.Controller.Load(c.Request.Context())
	respondForm(c, "form_load", http.StatusOK, sess, err)
}

func (h *Handler) setFields(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	var patch domain.DraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	err := sess.Controller.SetFields(patch)
	respondForm(c, "form_fields", http.StatusOK, sess, err)
}

func (h *Handler) addAttachments(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	mf, err := c.MultipartForm()
	if err != nil || len(mf.File[uploadField]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "files are required"})
		return
	}

	blobs, err := h.spoolAll(c, mf.File[uploadField])
	if err != nil {
		respondError(c, "form_upload", err)
		return
	}

	res, err := sess.Controller.AddFiles(blobs)
	releaseAll(c.Request.Context(), blobs[res.Added:])

	// A full form is not an error here: the warning is in the notifications.
	var capErr *attachments.CapacityExceededError
	if err != nil && !errors.As(err, &capErr) {
		respondForm(c, "form_upload", http.StatusOK, sess, err)
		return
	}
	body := formBody(sess)
	body["added"] = res.Added
	body["skipped"] = res.Skipped
	c.JSON(http.StatusOK, body)
}

func (h *Handler) removeAttachment(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid index"})
		return
	}

	err = sess.Controller.RemoveAttachment(index)
	respondForm(c, "form_remove_attachment", http.StatusOK, sess, err)
}

// preview streams a pending attachment to the browser.
func (h *Handler) preview(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	blob, ok := sess.Previews.Lookup(c.Param("handle"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "preview not found"})
		return
	}

	rc, err := blob.Open()
	if err != nil {
		respondError(c, "form_preview", err)
		return
	}
	defer rc.Close()

	disposition := mime.FormatMediaType("inline", map[string]string{"filename": blob.Name()})
	c.DataFromReader(http.StatusOK, blob.Size(), blob.ContentType(), rc, map[string]string{
		"Content-Disposition": disposition,
		"Cache-Control":       "private, no-store",
	})
}

func (h *Handler) submit(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	err := sess.Controller.Submit(c.Request.Context())
	respondForm(c, "form_submit", http.StatusOK, sess, err)
}

func (h *Handler) confirm(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	err := sess.Controller.Confirm(c.Request.Context())
	respondForm(c, "form_confirm", http.StatusOK, sess, err)
}

func (h *Handler) cancel(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	err := sess.Controller.Cancel()
	respondForm(c, "form_cancel", http.StatusOK, sess, err)
}

func (h *Handler) discardForm(c *gin.Context) {
	userID, _ := owner(c)
	if err := h.forms.Close(userID, c.Param("formID")); err != nil {
		respondError(c, "form_discard", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) deleteProject(c *gin.Context) {
	_, token := owner(c)
	if err := h.clients(token).DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, "project_delete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
