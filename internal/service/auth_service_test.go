package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/studijbot/studij-api/internal/models"
	appErrors "github.com/studijbot/studij-api/pkg/errors"
)

type authUserRepoStub struct {
	users      map[string]models.User
	lastLogins map[string]time.Time
}

func (s *authUserRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *authUserRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authUserRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if s.lastLogins == nil {
		s.lastLogins = make(map[string]time.Time)
	}
	s.lastLogins[id] = ts
	return nil
}

func newAuthService(t *testing.T, active bool) (*AuthService, *authUserRepoStub) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &authUserRepoStub{users: map[string]models.User{
		"u1": {
			ID:           "u1",
			Email:        "admin@studij.test",
			PasswordHash: string(hash),
			FullName:     "Admin",
			Active:       active,
		},
	}}
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "studij-api",
	})
	return svc, repo
}

func TestAuthServiceLogin(t *testing.T) {
	svc, repo := newAuthService(t, true)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@studij.test",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "u1", resp.User.ID)
	assert.Contains(t, repo.lastLogins, "u1")
}

func TestAuthServiceLoginRejectsWrongPassword(t *testing.T) {
	svc, repo := newAuthService(t, true)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@studij.test",
		Password: "wrong",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
	assert.Empty(t, repo.lastLogins)
}

func TestAuthServiceLoginRejectsUnknownEmail(t *testing.T) {
	svc, _ := newAuthService(t, true)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@studij.test",
		Password: "s3cret-pass",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginRejectsInactiveAccount(t *testing.T) {
	svc, _ := newAuthService(t, false)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@studij.test",
		Password: "s3cret-pass",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestAuthServiceValidateTokenRoundTrip(t *testing.T) {
	svc, _ := newAuthService(t, true)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@studij.test",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "admin@studij.test", claims.Email)
	assert.Equal(t, "studij-api", claims.Issuer)
}

func TestAuthServiceValidateTokenRejectsExpired(t *testing.T) {
	svc, _ := newAuthService(t, true)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@studij.test",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthServiceValidateTokenRejectsTampered(t *testing.T) {
	svc, _ := newAuthService(t, true)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@studij.test",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken + "x")
	require.Error(t, err)
}
