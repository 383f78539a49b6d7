package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"
)

// SessionDuration is how long sessions last (30 days).
const SessionDuration = 30 * 24 * time.Hour

// DefaultCategories are created, in this order, for every new user.
var DefaultCategories = []string{
	"Groceries",
	"Transportation",
	"Entertainment",
	"Bills",
	"Shopping",
	"Healthcare",
	"Other",
}

var (
	// ErrDuplicateUsername is returned by Register when the username exists.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInvalidCredentials is returned by Login for an unknown user and for a
	// wrong password alike.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAuthenticationRequired is returned when no valid session is presented.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrMissingCredentials is returned when username or password is empty.
	ErrMissingCredentials = errors.New("username and password are required")
)

// Session is an established session together with its signed cookie value.
type Session struct {
	User      *models.User
	Cookie    string
	ExpiresAt time.Time
	// Renewed is set by Authenticate when the expiry was extended and the
	// cookie has to be sent again.
	Renewed bool
}

// Service verifies credentials and manages sessions.
type Service struct {
	db     *storage.DB
	signer *Signer
	ttl    time.Duration
	now    func() time.Time
}

// NewService creates a Service backed by db that signs cookies with secret.
func NewService(db *storage.DB, secret string) *Service {
	return &Service{
		db:     db,
		signer: NewSigner(secret),
		ttl:    SessionDuration,
		now:    time.Now,
	}
}

// Register creates a user with the default categories and starts a session.
func (s *Service) Register(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.CreateUser(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, user)
}

// CreateUser stores a new account seeded with DefaultCategories.
func (s *Service) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	if _, err := s.db.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.db.CreateUserWithCategories(ctx, username, hash, DefaultCategories)
	if err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, storage.ErrUsernameTaken) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login checks the credentials and starts a session.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.db.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.startSession(ctx, user)
}

func (s *Service) startSession(ctx context.Context, user *models.User) (*Session, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	expiresAt := s.now().Add(s.ttl)
	if err := s.db.CreateSession(ctx, token, user.ID, expiresAt); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	cookie, err := s.signer.Sign(token, user.ID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return &Session{User: user, Cookie: cookie, ExpiresAt: expiresAt}, nil
}

// Authenticate resolves a cookie value to its session. Sessions in the
// second half of their lifetime are extended.
func (s *Service) Authenticate(ctx context.Context, cookie string) (*Session, error) {
	if cookie == "" {
		return nil, ErrAuthenticationRequired
	}
	token, err := s.signer.Verify(cookie)
	if err != nil {
		return nil, ErrAuthenticationRequired
	}

	info, err := s.db.ValidateSessionWithInfo(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrAuthenticationRequired
		}
		return nil, fmt.Errorf("validate session: %w", err)
	}

	sess := &Session{User: info.User, Cookie: cookie, ExpiresAt: info.ExpiresAt}

	now := s.now()
	if info.ExpiresAt.Sub(now) >= s.ttl/2 {
		return sess, nil
	}

	// Renewal failures keep the current session usable.
	newExpiresAt := now.Add(s.ttl)
	if err := s.db.RenewSession(ctx, token, newExpiresAt); err != nil {
		return sess, nil
	}
	renewed, err := s.signer.Sign(token, info.User.ID, newExpiresAt)
	if err != nil {
		return sess, nil
	}
	sess.Cookie = renewed
	sess.ExpiresAt = newExpiresAt
	sess.Renewed = true
	return sess, nil
}

// Logout destroys the session carried by cookie. Unknown or forged cookies
// are ignored.
func (s *Service) Logout(ctx context.Context, cookie string) error {
	token, err := s.signer.Verify(cookie)
	if err != nil {
		return nil
	}
	return s.db.DeleteSession(ctx, token)
}

// CleanExpiredSessions removes sessions past their expiry.
func (s *Service) CleanExpiredSessions(ctx context.Context) (int64, error) {
	return s.db.CleanExpiredSessions(ctx)
}

// EnsureUser registers username when the database has no users yet.
// It reports whether a user was created.
func (s *Service) EnsureUser(ctx context.Context, username, password string) (bool, error) {
	count, err := s.db.UserCount(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if _, err := s.CreateUser(ctx, username, password); err != nil {
		return false, err
	}
	return true, nil
}
