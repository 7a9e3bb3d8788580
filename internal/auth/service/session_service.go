package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	fbauth "firebase.google.com/go/v4/auth"

	"github.com/arqmanager/portfolio-web/internal/auth/domain"
	"github.com/arqmanager/portfolio-web/internal/backend"
	"github.com/arqmanager/portfolio-web/internal/logger"
	projects "github.com/arqmanager/portfolio-web/internal/projects/domain"
)

const (
	minNameLen     = 3
	minPasswordLen = 4
)

// Accounts is the slice of the catalog backend the session layer needs.
type Accounts interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, name, email, password string) (*projects.User, error)
	CurrentUser(ctx context.Context, token string) (*projects.User, error)
}

// BackendAccounts adapts the backend client to Accounts.
type BackendAccounts struct {
	Client *backend.Client
}

func (a BackendAccounts) Login(ctx context.Context, email, password string) (string, error) {
	return a.Client.Login(ctx, email, password)
}

func (a BackendAccounts) Register(ctx context.Context, name, email, password string) (*projects.User, error) {
	return a.Client.Register(ctx, name, email, password)
}

func (a BackendAccounts) CurrentUser(ctx context.Context, token string) (*projects.User, error) {
	return a.Client.WithToken(token).FetchCurrentUser(ctx)
}

// TokenVerifier checks a Google ID token before it is exchanged; the Firebase
// Admin auth client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// SessionStore persists sessions by ID.
type SessionStore interface {
	Create(ctx context.Context, rec *domain.SessionRecord) error
	Get(ctx context.Context, sid string) (*domain.SessionRecord, error)
	Touch(ctx context.Context, sid string) error
	Delete(ctx context.Context, sid string) error
}

// Session is the authenticated context of one browser. It is resolved at the
// start of each request and handed to the handlers that need it.
type Session struct {
	ID          string
	CurrentUser *projects.User
	Provider    domain.Provider
	token       string
}

func (s *Session) IsAuthenticated() bool {
	return s != nil && s.CurrentUser != nil && s.token != ""
}

// Token is the backend bearer token bound to this session.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	return s.token
}

// NewSession builds a session value; the store is not involved.
func NewSession(id string, user *projects.User, provider domain.Provider, token string) *Session {
	return &Session{ID: id, CurrentUser: user, Provider: provider, token: token}
}

func sessionFrom(rec *domain.SessionRecord) *Session {
	user := rec.User
	return NewSession(rec.ID, &user, rec.Provider, rec.Token)
}

type SessionService struct {
	store    SessionStore
	accounts Accounts
	verifier TokenVerifier
}

// NewSessionService wires the session layer. verifier may be nil, in which
// case Google tokens go to the backend unchecked.
func NewSessionService(store SessionStore, accounts Accounts, verifier TokenVerifier) *SessionService {
	return &SessionService{store: store, accounts: accounts, verifier: verifier}
}

// Login exchanges email and password for a backend token and opens a session.
func (s *SessionService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.accounts.Login(ctx, email, password)
	if err != nil {
		var rejected *backend.RemoteValidationError
		if errors.Is(err, backend.ErrUnauthenticated) || errors.As(err, &rejected) {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	return s.open(ctx, token, domain.ProviderPassword)
}

// LoginWithGoogle opens a session from a Google ID token. With a verifier
// configured the token is checked first; either way the backend has the last
// word through /me.
func (s *SessionService) LoginWithGoogle(ctx context.Context, idToken string) (*Session, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, domain.ErrInvalidGoogleToken
	}

	if s.verifier != nil {
		if _, err := s.verifier.VerifyIDToken(ctx, idToken); err != nil {
			logger.New(ctx).LogWarnf("login_google", "token verification failed: %v", err)
			return nil, domain.ErrInvalidGoogleToken
		}
	}

	sess, err := s.open(ctx, idToken, domain.ProviderGoogle)
	if errors.Is(err, backend.ErrUnauthenticated) {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidGoogleToken, err)
	}
	return sess, err
}

func (s *SessionService) open(ctx context.Context, token string, provider domain.Provider) (*Session, error) {
	user, err := s.accounts.CurrentUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load current user: %w", err)
	}

	rec := &domain.SessionRecord{Token: token, User: *user, Provider: provider}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, err
	}

	logger.New(ctx).LogInfof("session_open", "session=%s user=%s provider=%s", rec.ID, user.ID, provider)
	return sessionFrom(rec), nil
}

// Resolve loads the session for sid and slides its expiry.
func (s *SessionService) Resolve(ctx context.Context, sid string) (*Session, error) {
	rec, err := s.store.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	if err := s.store.Touch(ctx, sid); err != nil {
		logger.New(ctx).LogWarnf("session_touch", "session=%s error=%v", sid, err)
	}
	return sessionFrom(rec), nil
}

// Refresh asks the backend who the token belongs to. A token the backend no
// longer accepts ends the session.
func (s *SessionService) Refresh(ctx context.Context, sess *Session) (*projects.User, error) {
	user, err := s.accounts.CurrentUser(ctx, sess.Token())
	if errors.Is(err, backend.ErrUnauthenticated) {
		if derr := s.store.Delete(ctx, sess.ID); derr != nil {
			logger.New(ctx).LogError("session_refresh", derr)
		}
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	sess.CurrentUser = user
	return user, nil
}

// Logout forgets the session. Unknown sessions are ignored.
func (s *SessionService) Logout(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	return s.store.Delete(ctx, sid)
}

// Register validates the sign-up fields and creates the account on the backend.
func (s *SessionService) Register(ctx context.Context, req domain.RegisterRequest) (*projects.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	fields := map[string]string{}
	switch {
	case req.Name == "":
		fields["name"] = "Name is required"
	case utf8.RuneCountInString(req.Name) < minNameLen:
		fields["name"] = fmt.Sprintf("Name must be at least %d characters", minNameLen)
	}
	if req.Email == "" {
		fields["email"] = "Email is required"
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		fields["email"] = "Enter a valid email"
	}
	switch {
	case req.Password == "":
		fields["password"] = "Password is required"
	case len(req.Password) < minPasswordLen:
		fields["password"] = fmt.Sprintf("Password must be at least %d characters", minPasswordLen)
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	user, err := s.accounts.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return user, nil
}
