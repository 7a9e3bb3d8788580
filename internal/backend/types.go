package backend

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/arqmanager/portfolio-web/internal/projects/domain"
)

// The catalog backend speaks Portuguese field names. These wire types are the
// only accepted response shapes; anything else is a MalformedResponseError.
const (
	SchemaName    = "arqmanager-catalog"
	SchemaVersion = "v1"
)

// Multipart field names expected by the backend.
const (
	fieldTitle       = "titulo"
	fieldCategory    = "categoria"
	fieldDescription = "descricao"
	fieldClient      = "cliente"
	fieldResponsible = "responsavel"
	fieldDeadline    = "prazo"
	fieldCover       = "capa"
	fieldFiles       = "imagens"
	fieldRemoveIDs   = "imagensRemoveIds"
)

type projectV1 struct {
	ID          string       `json:"id"`
	Title       string       `json:"titulo"`
	Category    string       `json:"categoria"`
	Description string       `json:"descricao"`
	Client      *string      `json:"cliente"`
	Responsible *string      `json:"responsavel"`
	Deadline    *string      `json:"prazo"`
	Files       []projectImg `json:"ImagemProjeto"`
}

type projectImg struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type userV1 struct {
	ID    string `json:"id"`
	Name  string `json:"nome"`
	Email string `json:"email"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

type loginResp struct {
	Token string `json:"token"`
}

type registerReq struct {
	Name     string `json:"nome"`
	Email    string `json:"email"`
	Password string `json:"senha"`
}

func decodeProject(op string, body []byte) (*domain.Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &MalformedResponseError{Op: op, Reason: "expected a project object"}
	}

	var p projectV1
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, &MalformedResponseError{Op: op, Reason: "decode project", Err: err}
	}
	return p.toRecord(op)
}

func decodeProjectList(op string, body []byte) ([]domain.Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &MalformedResponseError{Op: op, Reason: "expected a list of projects"}
	}

	var items []projectV1
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, &MalformedResponseError{Op: op, Reason: "decode project list", Err: err}
	}

	out := make([]domain.Record, 0, len(items))
	for _, p := range items {
		r, err := p.toRecord(op)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

func (p projectV1) toRecord(op string) (*domain.Record, error) {
	if strings.TrimSpace(p.ID) == "" {
		return nil, &MalformedResponseError{Op: op, Reason: "project without id"}
	}

	r := &domain.Record{
		ID:          p.ID,
		Title:       p.Title,
		Category:    p.Category,
		Description: p.Description,
		Client:      deref(p.Client),
		Responsible: deref(p.Responsible),
		Files:       make([]domain.RemoteFile, 0, len(p.Files)),
	}

	if p.Deadline != nil && *p.Deadline != "" {
		t, err := parseDeadline(*p.Deadline)
		if err != nil {
			return nil, &MalformedResponseError{Op: op, Reason: "project deadline", Err: err}
		}
		r.Deadline = &t
	}

	for _, f := range p.Files {
		if f.ID == "" || f.URL == "" {
			return nil, &MalformedResponseError{Op: op, Reason: "project file without id or url"}
		}
		r.Files = append(r.Files, domain.RemoteFile{ID: f.ID, Path: f.URL})
	}

	return r, nil
}

func parseDeadline(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

func decodeUser(op string, body []byte) (*domain.User, error) {
	var u userV1
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, &MalformedResponseError{Op: op, Reason: "decode user", Err: err}
	}
	if strings.TrimSpace(u.ID) == "" {
		return nil, &MalformedResponseError{Op: op, Reason: "user without id"}
	}
	return &domain.User{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
