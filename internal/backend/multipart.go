package backend

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/arqmanager/portfolio-web/internal/projects/attachments"
	"github.com/arqmanager/portfolio-web/internal/projects/domain"
)

// ProjectInput is the multipart payload of a create or update call.
type ProjectInput struct {
	Draft domain.Draft
	// Cover is sent as its own part on create; the backend uses it as the project thumbnail.
	Cover     attachments.Blob
	Files     []attachments.Blob
	RemoveIDs []string
}

// streamMultipart writes the payload into a pipe so file contents are never
// buffered in memory. It returns the body and its content type.
func streamMultipart(in ProjectInput) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeProjectParts(mw, in)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}

func writeProjectParts(mw *multipart.Writer, in ProjectInput) error {
	d := in.Draft
	fields := []struct {
		name, value string
		always      bool
	}{
		{fieldTitle, d.Title, true},
		{fieldCategory, d.Category, true},
		{fieldDescription, d.Description, true},
		{fieldClient, d.Client, false},
		{fieldResponsible, d.Responsible, false},
		{fieldDeadline, d.Deadline, false},
	}
	for _, f := range fields {
		if !f.always && f.value == "" {
			continue
		}
		if err := mw.WriteField(f.name, f.value); err != nil {
			return fmt.Errorf("write field %s: %w", f.name, err)
		}
	}

	if in.Cover != nil {
		if err := writeFilePart(mw, fieldCover, in.Cover); err != nil {
			return err
		}
	}
	for _, b := range in.Files {
		if err := writeFilePart(mw, fieldFiles, b); err != nil {
			return err
		}
	}

	if len(in.RemoveIDs) > 0 {
		raw, err := json.Marshal(in.RemoveIDs)
		if err != nil {
			return fmt.Errorf("encode removal ids: %w", err)
		}
		if err := mw.WriteField(fieldRemoveIDs, string(raw)); err != nil {
			return fmt.Errorf("write field %s: %w", fieldRemoveIDs, err)
		}
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(mw *multipart.Writer, field string, b attachments.Blob) error {
	ct := b.ContentType()
	if ct == "" {
		ct = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(b.Name())))
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part for %s: %w", b.Name(), err)
	}

	src, err := b.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", b.Name(), err)
	}
	defer src.Close()

	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("copy %s: %w", b.Name(), err)
	}
	return nil
}
