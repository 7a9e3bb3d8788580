package form

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arqmanager/portfolio-web/internal/backend"
	"github.com/arqmanager/portfolio-web/internal/projects/attachments"
	"github.com/arqmanager/portfolio-web/internal/projects/domain"
	"github.com/arqmanager/portfolio-web/internal/projects/validation"
)

type fakeAPI struct {
	mu      sync.Mutex
	record  *domain.Record
	err     error
	creates []backend.ProjectInput
	updates []backend.ProjectInput
	fetches int
	block   chan struct{}
}

func (f *fakeAPI) FetchProject(ctx context.Context, id string) (*domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

func (f *fakeAPI) ListProjects(ctx context.Context, search string) ([]domain.Record, error) {
	return nil, nil
}

func (f *fakeAPI) CreateProject(ctx context.Context, in backend.ProjectInput) (*domain.Record, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, in)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Record{ID: "new-1", Title: in.Draft.Title}, nil
}

func (f *fakeAPI) UpdateProject(ctx context.Context, id string, in backend.ProjectInput) (*domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, in)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Record{ID: id, Title: in.Draft.Title}, nil
}

func (f *fakeAPI) DeleteProject(ctx context.Context, id string) error { return nil }

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates) + len(f.updates)
}

type harness struct {
	api      *fakeAPI
	previews *attachments.MemoryPreviews
	inbox    *Inbox
	redirect *Redirect
}

func newHarness(api *fakeAPI) (*harness, Options) {
	h := &harness{
		api:      api,
		previews: attachments.NewMemoryPreviews("/previews"),
		inbox:    &Inbox{},
		redirect: &Redirect{},
	}
	return h, Options{
		Schema:         validation.NewSchema(10, "Estudo Preliminar"),
		MaxAttachments: 6,
		Previews:       h.previews,
		FilesBaseURL:   "http://localhost:3333/",
		RedirectDelay:  time.Second,
		Notifier:       h.inbox,
		Navigator:      h.redirect,
	}
}

func blobs(names ...string) []attachments.Blob {
	out := make([]attachments.Blob, 0, len(names))
	for _, n := range names {
		out = append(out, attachments.NewMemoryBlob(n, "image/jpeg", []byte(n)))
	}
	return out
}

func persistedRecord() *domain.Record {
	return &domain.Record{
		ID:          "p-1",
		Title:       "Casa Moderna",
		Category:    "Anteprojeto",
		Description: "Projeto residencial completo",
		Files: []domain.RemoteFile{
			{ID: "img-1", Path: "fachada.jpg"},
			{ID: "img-2", Path: "docs/memorial.docx"},
		},
	}
}

func TestCreate_SubmitsValidDraft(t *testing.T) {
	h, opts := newHarness(&fakeAPI{})
	c := NewCreate(h.api, opts)
	assert.Equal(t, StateEditing, c.State())

	require.NoError(t, c.SetFields(domain.DraftPatch{
		Title:       ptr("Casa Moderna"),
		Description: ptr("Projeto residencial completo"),
	}))
	_, err := c.AddFiles(blobs("a.jpg", "b.jpg"))
	require.NoError(t, err)
	assert.Equal(t, 2, h.previews.Len())

	require.NoError(t, c.Submit(context.Background()))

	require.Len(t, h.api.creates, 1)
	in := h.api.creates[0]
	assert.Equal(t, "Casa Moderna", in.Draft.Title)
	assert.Equal(t, "Estudo Preliminar", in.Draft.Category)
	require.Len(t, in.Files, 2)
	assert.Equal(t, "a.jpg", in.Cover.Name(), "first pending file is the cover")
	assert.Empty(t, in.RemoveIDs)

	assert.Equal(t, StateSucceeded, c.State())
	assert.Zero(t, h.previews.Len(), "previews are released after success")
	assert.Equal(t, []Notification{{Level: LevelSuccess, Message: msgCreated}}, h.inbox.Drain())
	to, after := h.redirect.Pending()
	assert.Equal(t, "/dashboard", to)
	assert.Equal(t, time.Second, after)
}

func TestCreate_InvalidDraftNeverCallsBackend(t *testing.T) {
	h, opts := newHarness(&fakeAPI{})
	c := NewCreate(h.api, opts)
	require.NoError(t, c.SetFields(domain.DraftPatch{Title: ptr("   "), Description: ptr("curta")}))

	err := c.Submit(context.Background())

	var invalid *InvalidDraftError
	require.True(t, errors.As(err, &invalid))
	assert.Contains(t, invalid.Fields, validation.FieldTitle)
	assert.Contains(t, invalid.Fields, validation.FieldDescription)
	assert.Zero(t, h.api.calls())
	assert.Equal(t, StateEditing, c.State())
	assert.Equal(t, []Notification{{Level: LevelError, Message: msgCheckFields}}, h.inbox.Drain())

	v := c.View()
	assert.Equal(t, "Project name is required", v.FieldErrors[validation.FieldTitle])
}

func TestEdit_LoadHydratesDraftAndAttachments(t *testing.T) {
	h, opts := newHarness(&fakeAPI{record: persistedRecord()})
	c := NewEdit(h.api, "p-1", opts)
	assert.Equal(t, StateLoading, c.State())

	require.NoError(t, c.Load(context.Background()))

	v := c.View()
	assert.Equal(t, StateEditing, v.State)
	assert.Equal(t, "Casa Moderna", v.Draft.Title)
	require.Len(t, v.Attachments, 2)
	assert.Equal(t, "http://localhost:3333/files/fachada.jpg", v.Attachments[0].URL)
	assert.False(t, v.Attachments[0].IsNew)
	assert.Equal(t, "memorial.docx", v.Attachments[1].Name)
	assert.True(t, v.Attachments[1].IsDocument)
	assert.Equal(t, 4, v.Remaining)
}

func TestEdit_LoadFailure(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		h, opts := newHarness(&fakeAPI{err: fmt.Errorf("fetch: %w", backend.ErrNotFound)})
		c := NewEdit(h.api, "p-404", opts)

		err := c.Load(context.Background())
		assert.ErrorIs(t, err, backend.ErrNotFound)
		assert.Equal(t, StateLoadFailed, c.State())
		assert.Equal(t, "not_found", c.View().LoadError)
		assert.Len(t, h.inbox.Drain(), 1)
	})

	t.Run("retry after network error", func(t *testing.T) {
		api := &fakeAPI{err: &backend.NetworkError{Op: "fetch_project", Err: errors.New("refused")}}
		h, opts := newHarness(api)
		c := NewEdit(h.api, "p-1", opts)

		require.Error(t, c.Load(context.Background()))
		assert.Equal(t, "network", c.View().LoadError)

		api.err = nil
		api.record = persistedRecord()
		require.NoError(t, c.Load(context.Background()))
		assert.Equal(t, StateEditing, c.State())
		assert.Empty(t, c.View().LoadError)
		assert.Equal(t, 2, api.fetches)
	})
}

func TestEdit_CapacityAcceptsPartialBatch(t *testing.T) {
	h, opts := newHarness(&fakeAPI{record: persistedRecord()})
	c := NewEdit(h.api, "p-1", opts)
	require.NoError(t, c.Load(context.Background()))

	res, err := c.AddFiles(blobs("1.jpg", "2.jpg", "3.jpg", "4.jpg", "5.jpg"))

	var capErr *attachments.CapacityExceededError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 4, res.Added)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, c.View().Remaining)
	assert.Len(t, c.View().Attachments, 6)

	notes := h.inbox.Drain()
	require.Len(t, notes, 1)
	assert.Equal(t, LevelWarning, notes[0].Level)
	assert.Equal(t, "Maximum of 6 files allowed: 1 file(s) not added.", notes[0].Message)
}

func TestEdit_ConfirmSendsRemovalSet(t *testing.T) {
	h, opts := newHarness(&fakeAPI{record: persistedRecord()})
	c := NewEdit(h.api, "p-1", opts)
	require.NoError(t, c.Load(context.Background()))

	res, err := c.AddFiles(blobs("1.jpg", "2.jpg", "3.jpg", "4.jpg", "5.jpg"))
	var capErr *attachments.CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, attachments.AddResult{Added: 4, Skipped: 1}, res)

	require.NoError(t, c.RemoveAttachment(0))
	assert.Equal(t, 1, c.View().Remaining)
	h.inbox.Drain()

	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, StateConfirmPending, c.State())
	assert.Equal(t, "Casa Moderna", c.View().ConfirmTitle)
	assert.Zero(t, h.api.calls(), "nothing is sent before confirmation")

	require.NoError(t, c.Confirm(context.Background()))

	require.Len(t, h.api.updates, 1)
	in := h.api.updates[0]
	assert.Equal(t, []string{"img-1"}, in.RemoveIDs)
	require.Len(t, in.Files, 4)
	for i, f := range in.Files {
		assert.Equal(t, fmt.Sprintf("%d.jpg", i+1), f.Name())
	}
	assert.Nil(t, in.Cover)
	assert.Equal(t, StateSucceeded, c.State())
	assert.Equal(t, []Notification{{Level: LevelSuccess, Message: msgSaved}}, h.inbox.Drain())
}

func TestEdit_CancelReturnsToEditing(t *testing.T) {
	h, opts := newHarness(&fakeAPI{record: persistedRecord()})
	c := NewEdit(h.api, "p-1", opts)
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Submit(context.Background()))

	require.NoError(t, c.Cancel())
	assert.Equal(t, StateEditing, c.State())
	assert.ErrorIs(t, c.Cancel(), ErrNothingToConfirm)
	assert.ErrorIs(t, c.Confirm(context.Background()), ErrNothingToConfirm)
	assert.Zero(t, h.api.calls())
}

func TestSubmit_FailureKeepsDraft(t *testing.T) {
	api := &fakeAPI{record: persistedRecord()}
	h, opts := newHarness(api)
	c := NewEdit(h.api, "p-1", opts)
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.RemoveAttachment(1))
	_, err := c.AddFiles(blobs("nova.jpg"))
	require.NoError(t, err)

	api.err = &backend.NetworkError{Op: "update_project", Status: 502}
	require.NoError(t, c.Submit(context.Background()))
	err = c.Confirm(context.Background())

	var ne *backend.NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, StateEditing, c.State())

	v := c.View()
	assert.Equal(t, "Casa Moderna", v.Draft.Title)
	assert.Equal(t, []string{"img-2"}, v.RemoveIDs)
	assert.Len(t, v.Attachments, 2)
	assert.Equal(t, 1, h.previews.Len(), "pending previews survive a failed save")

	notes := h.inbox.Drain()
	require.Len(t, notes, 1, "exactly one failure notification")
	assert.Equal(t, Notification{Level: LevelError, Message: msgSaveFailed}, notes[0])
	to, _ := h.redirect.Pending()
	assert.Empty(t, to)
}

func TestSubmit_InFlightGuard(t *testing.T) {
	api := &fakeAPI{block: make(chan struct{})}
	h, opts := newHarness(api)
	c := NewCreate(h.api, opts)
	require.NoError(t, c.SetFields(domain.DraftPatch{
		Title:       ptr("Casa"),
		Description: ptr("Descricao longa o bastante"),
	}))

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background()) }()

	require.Eventually(t, func() bool { return c.State() == StateSubmitting }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, c.Submit(context.Background()), ErrSubmissionInFlight)
	assert.ErrorIs(t, c.SetFields(domain.DraftPatch{Title: ptr("x")}), ErrSubmissionInFlight)
	assert.True(t, c.View().Busy)

	close(api.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, api.calls())
}

func TestSubmit_SurvivesCallerCancellation(t *testing.T) {
	h, opts := newHarness(&fakeAPI{})
	c := NewCreate(h.api, opts)
	require.NoError(t, c.SetFields(domain.DraftPatch{
		Title:       ptr("Casa"),
		Description: ptr("Descricao longa o bastante"),
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, c.Submit(ctx))
	assert.Equal(t, StateSucceeded, c.State())
}

func TestDiscard(t *testing.T) {
	t.Run("releases previews", func(t *testing.T) {
		h, opts := newHarness(&fakeAPI{})
		c := NewCreate(h.api, opts)
		_, err := c.AddFiles(blobs("a.jpg", "b.jpg"))
		require.NoError(t, err)

		c.Discard()
		c.Discard()

		assert.Equal(t, StateDiscarded, c.State())
		assert.Zero(t, h.previews.Len())
		assert.ErrorIs(t, c.SetFields(domain.DraftPatch{}), ErrDiscarded)
	})

	t.Run("during submission defers release", func(t *testing.T) {
		api := &fakeAPI{block: make(chan struct{})}
		h, opts := newHarness(api)
		c := NewCreate(h.api, opts)
		require.NoError(t, c.SetFields(domain.DraftPatch{
			Title:       ptr("Casa"),
			Description: ptr("Descricao longa o bastante"),
		}))
		_, err := c.AddFiles(blobs("a.jpg"))
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() { done <- c.Submit(context.Background()) }()
		require.Eventually(t, func() bool { return c.State() == StateSubmitting }, time.Second, 5*time.Millisecond)

		c.Discard()
		assert.Equal(t, 1, h.previews.Len(), "blob still needed by the request")

		close(api.block)
		assert.ErrorIs(t, <-done, ErrDiscarded)
		assert.Zero(t, h.previews.Len())
		assert.Empty(t, h.inbox.Drain())
	})
}

func TestCreate_ZeroOptions(t *testing.T) {
	c := NewCreate(&fakeAPI{}, Options{})

	res, err := c.AddFiles(blobs("a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)

	v := c.View()
	require.Len(t, v.Attachments, 1)
	assert.True(t, v.Attachments[0].IsNew)
	assert.NotEmpty(t, v.Attachments[0].URL)

	c.Discard()
	assert.Equal(t, StateDiscarded, c.State())
}

func TestEdit_FileURLsCollapseSlashes(t *testing.T) {
	rec := persistedRecord()
	rec.Files[0].Path = "/uploads/fachada.jpg"
	h, opts := newHarness(&fakeAPI{record: rec})
	c := NewEdit(h.api, "p-1", opts)
	require.NoError(t, c.Load(context.Background()))

	assert.Equal(t, "http://localhost:3333/files/uploads/fachada.jpg", c.View().Attachments[0].URL)
}

func ptr(s string) *string { return &s }
