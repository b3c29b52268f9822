package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/festahub/festahub/internal/shared"
)

type mockRepository struct {
	byEmail  map[string]*Credential
	sessions []string
}

func (m *mockRepository) FindByEmail(ctx context.Context, email string) (*Credential, error) {
	c, ok := m.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (m *mockRepository) CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	m.sessions = append(m.sessions, id)
	return nil
}

func (m *mockRepository) DeleteSession(ctx context.Context, id string) error {
	return nil
}

func testHandler(t *testing.T, repo Repository) (*Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := shared.NewSessionManager(client, "festahub_session", "test-secret", time.Hour, false)
	csrf := shared.NewCSRFManager("test-secret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, NewService(repo), sessions, csrf), sessions
}

func loginRequest(t *testing.T, sessions *shared.SessionManager, body any) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	sess, err := sessions.Load(req.Context(), req)
	require.NoError(t, err)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestLoginSuccess(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockRepository{byEmail: map[string]*Credential{
		"owner@example.com": {UserID: "u-1", Email: "owner@example.com", PasswordHash: string(hash)},
	}}
	h, sessions := testHandler(t, repo)

	req := loginRequest(t, sessions, LoginRequest{Email: "owner@example.com", Password: "correct horse"})
	rec := httptest.NewRecorder()
	h.login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u-1", resp.UserID)
	assert.NotEmpty(t, resp.CSRFToken)

	sess := shared.SessionFromContext(req.Context())
	assert.Equal(t, "u-1", sess.User())
	assert.Equal(t, []string{sess.ID}, repo.sessions)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockRepository{byEmail: map[string]*Credential{
		"owner@example.com": {UserID: "u-1", Email: "owner@example.com", PasswordHash: string(hash)},
	}}
	h, sessions := testHandler(t, repo)

	req := loginRequest(t, sessions, LoginRequest{Email: "owner@example.com", Password: "battery staple"})
	rec := httptest.NewRecorder()
	h.login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownUserMatchesWrongPassword(t *testing.T) {
	h, sessions := testHandler(t, &mockRepository{byEmail: map[string]*Credential{}})

	req := loginRequest(t, sessions, LoginRequest{Email: "ghost@example.com", Password: "battery staple"})
	rec := httptest.NewRecorder()
	h.login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginDeletedAccount(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockRepository{byEmail: map[string]*Credential{
		"gone@example.com": {UserID: "u-2", Email: "gone@example.com", PasswordHash: string(hash), Deleted: true},
	}}
	h, sessions := testHandler(t, repo)

	req := loginRequest(t, sessions, LoginRequest{Email: "gone@example.com", Password: "correct horse"})
	rec := httptest.NewRecorder()
	h.login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
