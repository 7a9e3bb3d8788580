package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arqmanager/portfolio-web/internal/backend"
	"github.com/arqmanager/portfolio-web/internal/projects/attachments"
	"github.com/arqmanager/portfolio-web/internal/projects/domain"
	"github.com/arqmanager/portfolio-web/internal/projects/form"
	"github.com/arqmanager/portfolio-web/internal/projects/validation"
)

type stubAPI struct {
	records []domain.Record
	err     error
}

func (s *stubAPI) FetchProject(ctx context.Context, id string) (*domain.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.records {
		if s.records[i].ID == id {
			return &s.records[i], nil
		}
	}
	return nil, backend.ErrNotFound
}

func (s *stubAPI) ListProjects(ctx context.Context, search string) ([]domain.Record, error) {
	return s.records, s.err
}

func (s *stubAPI) CreateProject(ctx context.Context, in backend.ProjectInput) (*domain.Record, error) {
	return &domain.Record{ID: "new"}, s.err
}

func (s *stubAPI) UpdateProject(ctx context.Context, id string, in backend.ProjectInput) (*domain.Record, error) {
	return &domain.Record{ID: id}, s.err
}

func (s *stubAPI) DeleteProject(ctx context.Context, id string) error { return s.err }

func newTestRegistry() *Registry {
	return NewRegistry(RegistryOptions{
		Schema:         validation.NewSchema(10, "Estudo Preliminar"),
		MaxAttachments: 6,
		IdleTTL:        time.Hour,
	})
}

func TestRegistry_OpenAndGet(t *testing.T) {
	r := newTestRegistry()

	sess, err := r.OpenCreate("u-1", &stubAPI{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sess.ID, "frm_"))
	assert.Equal(t, form.StateEditing, sess.Controller.State())
	assert.Equal(t, "Estudo Preliminar", sess.Controller.View().Draft.Category)

	got, err := r.Get("u-1", sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	_, err = r.Get("u-2", sess.ID)
	assert.ErrorIs(t, err, ErrFormNotFound, "forms are private to their owner")

	_, err = r.Get("u-1", "frm_missing")
	assert.ErrorIs(t, err, ErrFormNotFound)
}

func TestRegistry_PreviewURLsAreScopedToTheForm(t *testing.T) {
	r := newTestRegistry()
	sess, err := r.OpenCreate("u-1", &stubAPI{})
	require.NoError(t, err)

	_, err = sess.Controller.AddFiles([]attachments.Blob{attachments.NewMemoryBlob("a.jpg", "image/jpeg", []byte("a"))})
	require.NoError(t, err)

	url := sess.Controller.View().Attachments[0].URL
	prefix := "/api/v1/forms/" + sess.ID + "/previews/"
	require.True(t, strings.HasPrefix(url, prefix), url)

	blob, ok := sess.Previews.Lookup(strings.TrimPrefix(url, prefix))
	require.True(t, ok)
	assert.Equal(t, "a.jpg", blob.Name())
}

func TestRegistry_Close(t *testing.T) {
	r := newTestRegistry()
	sess, err := r.OpenCreate("u-1", &stubAPI{})
	require.NoError(t, err)
	_, err = sess.Controller.AddFiles([]attachments.Blob{attachments.NewMemoryBlob("a.jpg", "image/jpeg", nil)})
	require.NoError(t, err)

	assert.ErrorIs(t, r.Close("u-2", sess.ID), ErrFormNotFound)

	require.NoError(t, r.Close("u-1", sess.ID))
	assert.Equal(t, form.StateDiscarded, sess.Controller.State())
	assert.Zero(t, sess.Previews.Len())
	assert.Zero(t, r.Len())
}

func TestRegistry_SweepDiscardsIdleForms(t *testing.T) {
	r := newTestRegistry()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	idle, err := r.OpenCreate("u-1", &stubAPI{})
	require.NoError(t, err)
	_, err = idle.Controller.AddFiles([]attachments.Blob{attachments.NewMemoryBlob("a.jpg", "image/jpeg", nil)})
	require.NoError(t, err)

	now = now.Add(50 * time.Minute)
	active, err := r.OpenCreate("u-1", &stubAPI{})
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	_, err = r.Get("u-1", active.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, form.StateDiscarded, idle.Controller.State())
	assert.Zero(t, idle.Previews.Len())

	_, err = r.Get("u-1", idle.ID)
	assert.ErrorIs(t, err, ErrFormNotFound)
	_, err = r.Get("u-1", active.ID)
	assert.NoError(t, err)
}

func TestRegistry_EditFormLoads(t *testing.T) {
	r := newTestRegistry()
	api := &stubAPI{records: []domain.Record{{ID: "p-1", Title: "Casa", Files: []domain.RemoteFile{{ID: "i", Path: "a.jpg"}}}}}

	sess, err := r.OpenEdit("u-1", "p-1", api)
	require.NoError(t, err)
	assert.Equal(t, form.StateLoading, sess.Controller.State())

	require.NoError(t, sess.Controller.Load(context.Background()))
	assert.Equal(t, "Casa", sess.Controller.View().Draft.Title)
	assert.Equal(t, "p-1", sess.Controller.ProjectID())
}

func TestRegistry_CloseAll(t *testing.T) {
	r := newTestRegistry()
	_, err := r.OpenCreate("u-1", &stubAPI{})
	require.NoError(t, err)
	_, err = r.OpenCreate("u-2", &stubAPI{})
	require.NoError(t, err)

	assert.Equal(t, 2, r.CloseAll())
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, r.CloseAll())
}
