package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pixelfair/pixelfair-backend/internal/users"
	pkgauth "github.com/pixelfair/pixelfair-backend/pkg/auth"
	"github.com/pixelfair/pixelfair-backend/pkg/config"
	"github.com/pixelfair/pixelfair-backend/pkg/db/models"
	pkgerrors "github.com/pixelfair/pixelfair-backend/pkg/errors"
)

type fakeSessionManager struct {
	mu       sync.Mutex
	sessions map[string]string
}

func newFakeSessionManager() *fakeSessionManager {
	return &fakeSessionManager{sessions: map[string]string{}}
}

func (f *fakeSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := "refresh-" + accessID
	f.sessions[accessID] = token
	return token, nil
}

func (f *fakeSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.sessions[oldAccessID]
	if !ok || stored != provided {
		return "", "", fmt.Errorf("invalid refresh token")
	}
	delete(f.sessions, oldAccessID)
	newID := uuid.NewString()
	newToken := "refresh-" + newID
	f.sessions[newID] = newToken
	return newID, newToken, nil
}

func (f *fakeSessionManager) Revoke(ctx context.Context, accessID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, accessID)
	return nil
}

func setupAuthTest(t *testing.T) (Service, *fakeSessionManager) {
	t.Helper()

	dsn := fmt.Sprintf("file:auth_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}))

	sessions := newFakeSessionManager()
	svc, err := NewService(ServiceParams{
		UserRepo:       users.NewRepository(conn),
		SessionManager: sessions,
		JWTConfig: config.JWTConfig{
			Secret:            "test-secret",
			Issuer:            "pixelfair-test",
			ExpirationMinutes: 15,
		},
		PasswordConfig: config.PasswordConfig{
			ArgonMemoryKB:    8 * 1024,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
	})
	require.NoError(t, err)
	return svc, sessions
}

func TestSignupAndLogin(t *testing.T) {
	svc, _ := setupAuthTest(t)
	ctx := context.Background()

	resp, err := svc.Signup(ctx, SignupRequest{
		Username: "ada",
		Email:    "Ada@Example.com",
		Password: "correct horse",
		Balance:  250,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, 250.0, resp.User.Balance)
	assert.NotEqual(t, "correct horse", resp.User.PasswordHash)

	login, err := svc.Login(ctx, LoginRequest{Username: "ada", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	claims, err := pkgauth.ParseAccessToken(config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "pixelfair-test",
		ExpirationMinutes: 15,
	}, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
}

func TestSignupDuplicateUsername(t *testing.T) {
	svc, _ := setupAuthTest(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{Username: "ada", Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, SignupRequest{Username: "ada", Email: "other@example.com", Password: "correct horse"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := setupAuthTest(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{Username: "ada", Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Username: "ada", Password: "wrong"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Login(ctx, LoginRequest{Username: "nobody", Password: "whatever"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshRotatesSession(t *testing.T) {
	svc, sessions := setupAuthTest(t)
	ctx := context.Background()

	resp, err := svc.Signup(ctx, SignupRequest{Username: "ada", Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, RefreshRequest{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, resp.User.ID, refreshed.User.ID)

	// the old pair is spent
	_, err = svc.Refresh(ctx, RefreshRequest{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	})
	require.Error(t, err)

	assert.Len(t, sessions.sessions, 1)
}

func TestSignupValidation(t *testing.T) {
	svc, _ := setupAuthTest(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{Username: "ada", Email: "not-an-email", Password: "correct horse"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.Signup(ctx, SignupRequest{Username: "ada", Email: "ada@example.com", Password: "short"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
