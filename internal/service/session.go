package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atinyakov/GophShop/internal/client/storage"
	"github.com/atinyakov/GophShop/internal/metrics"
	"github.com/atinyakov/GophShop/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUserExists is returned when an email is already registered.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned by Login when no account matches.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrStorageUnavailable is returned when the account list cannot be
	// read, so no write may replace it.
	ErrStorageUnavailable = errors.New("local storage unavailable")
)

// SessionEvent is published after login, logout and profile updates.
type SessionEvent struct {
	Op string
	// User is the session after the change; nil when logged out.
	User *models.User
	// Persisted is false when the change could not be written to storage.
	Persisted bool
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithHashCost sets the bcrypt cost used at registration.
func WithHashCost(cost int) SessionOption {
	return func(s *SessionStore) { s.hashCost = cost }
}

// WithIDFunc replaces the account id generator.
func WithIDFunc(fn func() (string, error)) SessionOption {
	return func(s *SessionStore) { s.newID = fn }
}

// SessionStore owns the active session and the registered accounts.
// Emails are compared exactly, so "A@x.com" and "a@x.com" are different
// accounts.
type SessionStore struct {
	mu       sync.Mutex
	adapter  *storage.Adapter
	log      *zap.Logger
	user     *models.User
	accounts []models.Account
	hashCost int
	newID    func() (string, error)
	events   notifier[SessionEvent]

	// accountsUnread is set while the stored account list could not be read.
	accountsUnread bool
}

// NewSessionStore restores the persisted session and account list. A
// malformed session entry is removed and the store starts logged out. When
// the backend fails, stored data is left untouched and the account list is
// read again by the next operation that needs it.
func NewSessionStore(ctx context.Context, adapter *storage.Adapter, log *zap.Logger, opts ...SessionOption) *SessionStore {
	if log == nil {
		log = zap.NewNop()
	}
	s := &SessionStore{
		adapter:  adapter,
		log:      log,
		hashCost: bcrypt.DefaultCost,
		newID:    newAccountID,
	}
	for _, opt := range opts {
		opt(s)
	}

	var u models.User
	if ok, err := restore(ctx, adapter, s.log, storage.KeySession, &u); err == nil && ok {
		s.user = &u
	}
	if err := s.loadAccounts(ctx); err != nil {
		s.accountsUnread = true
	}
	return s
}

// loadAccounts reads the account list. A malformed list is discarded.
func (s *SessionStore) loadAccounts(ctx context.Context) error {
	var accounts []models.Account
	ok, err := restore(ctx, s.adapter, s.log, storage.KeyUsers, &accounts)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if !ok {
		accounts = nil
	}
	s.accounts = accounts
	s.accountsUnread = false
	return nil
}

// ensureAccounts retries the account list read if it failed earlier.
// The caller holds s.mu.
func (s *SessionStore) ensureAccounts(ctx context.Context) error {
	if !s.accountsUnread {
		return nil
	}
	return s.loadAccounts(ctx)
}

// newAccountID returns a time-ordered unique id.
func newAccountID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Subscribe registers fn for session events and returns its cancel function.
func (s *SessionStore) Subscribe(fn func(SessionEvent)) func() {
	return s.events.subscribe(fn)
}

// User returns the active session's user.
func (s *SessionStore) User() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// IsAuthenticated reports whether a session is active.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// Register creates an account. It does not start a session.
func (s *SessionStore) Register(ctx context.Context, req models.RegisterRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureAccounts(ctx); err != nil {
		return err
	}
	if s.findByEmail(req.Email) >= 0 {
		return ErrUserExists
	}
	id, err := s.newID()
	if err != nil {
		return fmt.Errorf("generate user id: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	accounts := make([]models.Account, len(s.accounts), len(s.accounts)+1)
	copy(accounts, s.accounts)
	s.accounts = append(accounts, models.Account{
		User: models.User{
			ID:     id,
			Name:   req.Name,
			Email:  req.Email,
			Avatar: req.Avatar,
		},
		PasswordHash: hash,
	})
	persist(ctx, s.adapter, s.log, storage.KeyUsers, s.accounts)
	metrics.StoreOps.WithLabelValues("session", "register").Inc()
	return nil
}

// Login starts a session for the account matching email and password.
// On failure the current session is left as it was.
func (s *SessionStore) Login(ctx context.Context, email, password string) error {
	s.mu.Lock()
	if err := s.ensureAccounts(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	i := s.findByEmail(email)
	if i < 0 || bcrypt.CompareHashAndPassword(s.accounts[i].PasswordHash, []byte(password)) != nil {
		s.mu.Unlock()
		return ErrInvalidCredentials
	}
	u := s.accounts[i].User
	s.user = &u
	persisted := persist(ctx, s.adapter, s.log, storage.KeySession, u)
	s.mu.Unlock()

	metrics.StoreOps.WithLabelValues("session", "login").Inc()
	s.events.publish(SessionEvent{Op: "login", User: &u, Persisted: persisted})
	return nil
}

// Logout ends the session. Registered accounts are kept.
func (s *SessionStore) Logout(ctx context.Context) {
	s.mu.Lock()
	s.user = nil
	err := s.adapter.Remove(ctx, storage.KeySession)
	if err != nil {
		s.log.Error("failed to remove user from local storage", zap.Error(err))
	}
	s.mu.Unlock()

	metrics.StoreOps.WithLabelValues("session", "logout").Inc()
	s.events.publish(SessionEvent{Op: "logout", Persisted: err == nil})
}

// UpdateUser merges upd into the session user and into the matching
// account. It does nothing and returns ErrNotAuthenticated without a
// session, and ErrUserExists when the new email belongs to another account.
func (s *SessionStore) UpdateUser(ctx context.Context, upd models.UserUpdate) error {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	if err := s.ensureAccounts(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	if upd.Email != nil {
		if i := s.findByEmail(*upd.Email); i >= 0 && s.accounts[i].ID != s.user.ID {
			s.mu.Unlock()
			return ErrUserExists
		}
	}

	u := upd.Apply(*s.user)
	s.user = &u

	accounts := make([]models.Account, len(s.accounts))
	for i, a := range s.accounts {
		if a.ID == u.ID {
			a.User = upd.Apply(a.User)
		}
		accounts[i] = a
	}
	s.accounts = accounts

	sessionSaved := persist(ctx, s.adapter, s.log, storage.KeySession, u)
	accountsSaved := persist(ctx, s.adapter, s.log, storage.KeyUsers, s.accounts)
	s.mu.Unlock()

	metrics.StoreOps.WithLabelValues("session", "update_user").Inc()
	s.events.publish(SessionEvent{Op: "update_user", User: &u, Persisted: sessionSaved && accountsSaved})
	return nil
}

func (s *SessionStore) findByEmail(email string) int {
	for i, a := range s.accounts {
		if a.Email == email {
			return i
		}
	}
	return -1
}
