package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/ccmr-api/internal/models"
	"github.com/noah-isme/ccmr-api/pkg/config"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
)

type stubUserStore struct {
	user *models.User
	err  error
}

func (s *stubUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.user, s.err
}

func testAuthService(t *testing.T, store *stubUserStore) *AuthService {
	t.Helper()
	return NewAuthService(store, nil, nil, config.JWTConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "ccmr-api",
	})
}

func gcoUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           4,
		Email:        "counselor@adzu.edu.ph",
		PasswordHash: string(hash),
		Name:         "Ana Reyes",
		Type:         models.DepartmentGCO,
	}
}

func TestAuthServiceLogin(t *testing.T) {
	svc := testAuthService(t, &stubUserStore{user: gcoUser(t, "sup3r-secret")})

	res, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "counselor@adzu.edu.ph",
		Password: "sup3r-secret",
	})
	require.NoError(t, err)
	require.Equal(t, "User found", res.Message)
	require.Equal(t, "Guidance Counseling Office", res.User.Department)
	require.Greater(t, res.ExpiresIn, int64(3500))

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	require.Equal(t, int64(4), claims.UserID)
	require.Equal(t, models.DepartmentGCO, claims.Department)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc := testAuthService(t, &stubUserStore{user: gcoUser(t, "sup3r-secret")})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "counselor@adzu.edu.ph",
		Password: "wrong",
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, 401, appErr.Status)
	require.Equal(t, "Invalid credentials", appErr.Message)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := testAuthService(t, &stubUserStore{err: sql.ErrNoRows})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@adzu.edu.ph",
		Password: "whatever",
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, 401, appErr.Status)
	require.Equal(t, "Invalid credentials", appErr.Message)
}

func TestAuthServiceLoginMissingCredentials(t *testing.T) {
	svc := testAuthService(t, &stubUserStore{user: gcoUser(t, "sup3r-secret")})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "counselor@adzu.edu.ph"})
	appErr := appErrors.FromError(err)
	require.Equal(t, 400, appErr.Status)
	require.Equal(t, "Missing credentials", appErr.Message)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := testAuthService(t, &stubUserStore{})

	_, err := svc.ValidateToken("not-a-token")
	appErr := appErrors.FromError(err)
	require.Equal(t, 401, appErr.Status)
}

func TestAuthServiceValidateTokenRejectsWrongSecret(t *testing.T) {
	issuing := testAuthService(t, &stubUserStore{user: gcoUser(t, "sup3r-secret")})
	res, err := issuing.Login(context.Background(), models.LoginRequest{
		Email:    "counselor@adzu.edu.ph",
		Password: "sup3r-secret",
	})
	require.NoError(t, err)

	other := NewAuthService(&stubUserStore{}, nil, nil, config.JWTConfig{
		Secret:     "different-secret",
		Expiration: time.Hour,
	})
	_, err = other.ValidateToken(res.Token)
	appErr := appErrors.FromError(err)
	require.Equal(t, 401, appErr.Status)
}
