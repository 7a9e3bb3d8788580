package service

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/arqmanager/portfolio-web/internal/backend"
	"github.com/arqmanager/portfolio-web/internal/projects/domain"
)

type FileRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	IsDocument bool   `json:"is_document"`
	IsPDF      bool   `json:"is_pdf"`
}

// GalleryItem is a project as shown in the public gallery and detail page.
type GalleryItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Client      string    `json:"client,omitempty"`
	Responsible string    `json:"responsible,omitempty"`
	Deadline    string    `json:"deadline,omitempty"`
	Cover       *FileRef  `json:"cover,omitempty"`
	Files       []FileRef `json:"files"`
}

// GalleryService turns backend records into display items.
type GalleryService struct {
	filesBaseURL string
}

func NewGalleryService(filesBaseURL string) *GalleryService {
	return &GalleryService{filesBaseURL: strings.TrimRight(filesBaseURL, "/")}
}

// List returns the projects whose title matches search (all when empty).
func (s *GalleryService) List(ctx context.Context, api backend.ProjectsAPI, search string) ([]GalleryItem, error) {
	records, err := api.ListProjects(ctx, search)
	if err != nil {
		return nil, err
	}
	out := make([]GalleryItem, 0, len(records))
	for i := range records {
		out = append(out, s.item(&records[i]))
	}
	return out, nil
}

func (s *GalleryService) Detail(ctx context.Context, api backend.ProjectsAPI, id string) (*GalleryItem, error) {
	rec, err := api.FetchProject(ctx, id)
	if err != nil {
		return nil, err
	}
	item := s.item(rec)
	return &item, nil
}

func (s *GalleryService) item(rec *domain.Record) GalleryItem {
	item := GalleryItem{
		ID:          rec.ID,
		Title:       rec.Title,
		Category:    rec.Category,
		Description: rec.Description,
		Client:      rec.Client,
		Responsible: rec.Responsible,
		Files:       make([]FileRef, 0, len(rec.Files)),
	}
	if rec.Deadline != nil {
		item.Deadline = rec.Deadline.UTC().Format(time.DateOnly)
	}
	for _, f := range rec.Files {
		item.Files = append(item.Files, s.fileRef(f))
	}
	if cover, ok := rec.CoverFile(); ok {
		ref := s.fileRef(cover)
		item.Cover = &ref
	}
	return item
}

// FileURL resolves a stored path against the files base URL.
func (s *GalleryService) FileURL(p string) string {
	return domain.FileURL(s.filesBaseURL, p)
}

func (s *GalleryService) fileRef(f domain.RemoteFile) FileRef {
	name := f.DisplayName()
	return FileRef{
		ID:         f.ID,
		Name:       name,
		URL:        s.FileURL(f.Path),
		IsDocument: domain.IsDocument(name),
		IsPDF:      strings.EqualFold(path.Ext(name), ".pdf"),
	}
}

