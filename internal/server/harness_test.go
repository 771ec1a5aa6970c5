package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/courierhq/courier/internal/app"
	"github.com/courierhq/courier/internal/common"
	"github.com/courierhq/courier/internal/models"
	"github.com/courierhq/courier/internal/services/session"
	"github.com/courierhq/courier/internal/storage/tokendb"
)

// --- In-memory collaborators for handler tests ---

type mockProvider struct {
	authURL     string
	authErr     error
	exchangeFn  func(ctx context.Context, code string) (*models.OAuthSession, *models.UserIdentity, error)
	refreshFn   func(ctx context.Context, refreshToken string) (*models.OAuthSession, error)
	refreshHits int
	mu          sync.Mutex
}

func (m *mockProvider) AuthCodeURL() (string, error) {
	if m.authErr != nil {
		return "", m.authErr
	}
	if m.authURL != "" {
		return m.authURL, nil
	}
	return "https://provider.example/consent?client_id=test", nil
}

func (m *mockProvider) Exchange(ctx context.Context, code string) (*models.OAuthSession, *models.UserIdentity, error) {
	if m.exchangeFn != nil {
		return m.exchangeFn(ctx, code)
	}
	session := &models.OAuthSession{
		AccessToken:  "at-" + code,
		RefreshToken: "rt-" + code,
		ExpiresIn:    3600,
		CreatedAt:    time.Now().UnixMilli(),
	}
	identity := &models.UserIdentity{UID: "uid-1", Email: "user@example.com", Name: "Test User"}
	return session, identity, nil
}

func (m *mockProvider) Refresh(ctx context.Context, refreshToken string) (*models.OAuthSession, error) {
	m.mu.Lock()
	m.refreshHits++
	m.mu.Unlock()
	if m.refreshFn != nil {
		return m.refreshFn(ctx, refreshToken)
	}
	return &models.OAuthSession{
		AccessToken:  "refreshed-at",
		RefreshToken: refreshToken,
		ExpiresIn:    3600,
		CreatedAt:    time.Now().UnixMilli(),
	}, nil
}

type mockAutomation struct {
	sendFn func(ctx context.Context, exchange *models.ChatExchange) (*models.NormalizedReply, error)
	last   *models.ChatExchange
	mu     sync.Mutex
}

func (m *mockAutomation) Send(ctx context.Context, exchange *models.ChatExchange) (*models.NormalizedReply, error) {
	m.mu.Lock()
	m.last = exchange
	m.mu.Unlock()
	if m.sendFn != nil {
		return m.sendFn(ctx, exchange)
	}
	return &models.NormalizedReply{Text: "ok"}, nil
}

type memTokenStore struct {
	mu      sync.Mutex
	records map[string]*models.TokenRecord
	getErr  error
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{records: make(map[string]*models.TokenRecord)}
}

func (s *memTokenStore) Get(_ context.Context, uid string) (*models.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	rec, ok := s.records[uid]
	if !ok {
		return nil, fmt.Errorf("uid '%s': %w", uid, tokendb.ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

func (s *memTokenStore) Save(_ context.Context, record *models.TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *record
	s.records[record.UID] = &cp
	return nil
}

func (s *memTokenStore) Delete(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, uid)
	return nil
}

func (s *memTokenStore) Close() error { return nil }

// testServer wires a Server around in-memory collaborators.
func testServer(provider *mockProvider, backend *mockAutomation, store *memTokenStore) (*Server, *app.App) {
	config := common.NewDefaultConfig()
	config.Auth.JWTSecret = "test-secret"
	config.Auth.FrontendURL = "http://frontend.example"
	config.Auth.Google.ClientID = "test-client"
	config.Auth.Google.ClientSecret = "test-secret"
	config.Auth.Google.RedirectURI = "http://localhost:5000/auth/google/callback"
	config.Clients.Automation.WebhookURL = "http://backend.example/webhook"

	logger := common.NewSilentLogger()

	a := &app.App{
		Config:      config,
		Logger:      logger,
		TokenStore:  store,
		Provider:    provider,
		Automation:  backend,
		Sessions:    session.NewService(provider, store, logger),
		StartupTime: time.Now(),
	}
	return NewServer(a), a
}

// encodedSession returns the bearer credential form of a session.
func encodedSession(session *models.OAuthSession) string {
	enc, err := encodeParam(session)
	if err != nil {
		panic(err)
	}
	return enc
}
