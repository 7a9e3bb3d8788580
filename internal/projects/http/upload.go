package http

import (
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/arqmanager/portfolio-web/internal/logger"
	"github.com/arqmanager/portfolio-web/internal/projects/attachments"
	"github.com/arqmanager/portfolio-web/internal/projects/utils"
)

const uploadField = "files"

// spoolAll saves every uploaded file under the spool directory. On failure
// the files already saved are removed.
func (h *Handler) spoolAll(c *gin.Context, headers []*multipart.FileHeader) ([]attachments.Blob, error) {
	if err := os.MkdirAll(h.spoolDir, 0o755); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}

	blobs := make([]attachments.Blob, 0, len(headers))
	for _, fh := range headers {
		b, err := h.spool(c, fh)
		if err != nil {
			releaseAll(c.Request.Context(), blobs)
			return nil, err
		}
		blobs = append(blobs, b)
	}
	return blobs, nil
}

func (h *Handler) spool(c *gin.Context, fh *multipart.FileHeader) (*attachments.FileBlob, error) {
	id, err := utils.NewID("upl")
	if err != nil {
		return nil, fmt.Errorf("new upload id: %w", err)
	}

	name := filepath.Base(fh.Filename)
	ext := filepath.Ext(name)
	dst := filepath.Join(h.spoolDir, id+ext)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return nil, fmt.Errorf("saving uploaded file failed: %w", err)
	}

	ct := fh.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			ct = byExt
		}
	}
	if ct == "" {
		ct = "application/octet-stream"
	}

	return &attachments.FileBlob{Path: dst, FileName: name, Bytes: fh.Size, MIME: ct}, nil
}

func releaseAll(ctx context.Context, blobs []attachments.Blob) {
	for _, b := range blobs {
		r, ok := b.(attachments.Releaser)
		if !ok {
			continue
		}
		if err := r.Release(); err != nil {
			logger.New(ctx).LogWarnf("spool_release", "file=%s error=%v", b.Name(), err)
		}
	}
}
