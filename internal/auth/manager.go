// Package auth is the local identity provider: bcrypt password hashes in the
// user table and a signed session token on disk.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/sandeepkv93/smarttodo/internal/config"
	"github.com/sandeepkv93/smarttodo/internal/storage"
)

const minPasswordLen = 8

var (
	ErrInvalidEmail       = errors.New("auth: invalid email")
	ErrWeakPassword       = errors.New("auth: password too short")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

type Manager struct {
	users       storage.UserRepository
	secret      []byte
	ttl         time.Duration
	sessionPath string
	cost        int
	now         func() time.Time
	log         logrus.FieldLogger

	mu      sync.RWMutex
	current *Claims
}

// NewManager builds the provider. Without a configured jwt_secret a random
// key is generated once and kept next to the session file.
func NewManager(users storage.UserRepository, cfg config.Config, log logrus.FieldLogger) (*Manager, error) {
	if log == nil {
		log = config.WithContext(context.Background())
	}
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		var err error
		secret, err = loadOrCreateSecret(filepath.Join(filepath.Dir(cfg.SessionPath), "session.key"))
		if err != nil {
			return nil, err
		}
	}
	return &Manager{
		users:       users,
		secret:      secret,
		ttl:         cfg.SessionTTL,
		sessionPath: cfg.SessionPath,
		cost:        bcrypt.DefaultCost,
		now:         time.Now,
		log:         log,
	}, nil
}

// Restore picks up a session left by a previous run. Expired or tampered
// sessions are removed.
func (m *Manager) Restore() bool {
	raw, err := os.ReadFile(m.sessionPath)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}
	if err != nil {
		m.log.WithError(err).Error("read session file failed")
		return false
	}
	claims, err := ParseToken(m.secret, strings.TrimSpace(string(raw)), m.now())
	if err != nil {
		m.log.WithError(err).Info("discarding stored session")
		m.clearSessionFile()
		return false
	}
	m.mu.Lock()
	m.current = claims
	m.mu.Unlock()
	return true
}

// SignUp creates the account and signs it in.
func (m *Manager) SignUp(ctx context.Context, email, password, displayName string) error {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return ErrWeakPassword
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user := storage.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    m.now().UTC(),
	}
	if err := m.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return m.startSession(user)
}

func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	user, err := m.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return m.startSession(user)
}

func (m *Manager) Register(ctx context.Context, email, password, displayName string) bool {
	if err := m.SignUp(ctx, email, password, displayName); err != nil {
		m.log.WithError(err).WithField("email", email).Warn("register failed")
		return false
	}
	return true
}

func (m *Manager) Login(ctx context.Context, email, password string) bool {
	if err := m.SignIn(ctx, email, password); err != nil {
		m.log.WithError(err).WithField("email", email).Warn("login failed")
		return false
	}
	return true
}

func (m *Manager) SignOut() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	m.clearSessionFile()
}

func (m *Manager) IsLoggedIn() bool {
	return m.claims() != nil
}

func (m *Manager) CurrentUserID() string {
	if c := m.claims(); c != nil {
		return c.UserID()
	}
	return ""
}

func (m *Manager) CurrentUserEmail() string {
	if c := m.claims(); c != nil {
		return c.Email
	}
	return ""
}

func (m *Manager) CurrentUserDisplayName() string {
	if c := m.claims(); c != nil {
		return c.Name
	}
	return ""
}

func (m *Manager) claims() *Claims {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Manager) startSession(user storage.User) error {
	now := m.now()
	token, err := IssueToken(m.secret, user.ID, user.Email, user.DisplayName, m.ttl, now)
	if err != nil {
		return err
	}
	claims, err := ParseToken(m.secret, token, now)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.sessionPath), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(m.sessionPath, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	m.mu.Lock()
	m.current = claims
	m.mu.Unlock()
	return nil
}

func (m *Manager) clearSessionFile() {
	if err := os.Remove(m.sessionPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		m.log.WithError(err).Error("remove session file failed")
	}
}

func loadOrCreateSecret(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		key, decodeErr := hex.DecodeString(strings.TrimSpace(string(raw)))
		if decodeErr == nil && len(key) > 0 {
			return key, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read session key: %w", err)
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate session key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key)+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("write session key: %w", err)
	}
	return key, nil
}
