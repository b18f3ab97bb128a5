package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/Josczesny/BancoBrasil/internal/apperrors"
	"github.com/Josczesny/BancoBrasil/internal/models"
	"github.com/Josczesny/BancoBrasil/internal/repository"
	"github.com/Josczesny/BancoBrasil/internal/repository/postgres"
	"github.com/Josczesny/BancoBrasil/internal/testutil"
)

func Test_Auth(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Begin new db transaction and create new AuthService over it
	// Rollback transaction when test stops
	withTx := func(t *testing.T, fn func(s *AuthService, userRepo repository.UserRepo)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			userRepo := &postgres.UserRepo{DB: tx}

			s, err := NewService(Config{Token: TokenConfig{SecretKey: "test-secret-key"}}, userRepo)
			require.NoError(t, err, "auth service couldn't be started")

			fn(s, userRepo)
		})
	}

	createUser := func(t *testing.T, userRepo repository.UserRepo, password string) models.User {
		t.Helper()

		hash, err := DefaultHasher.Hash(password)
		require.NoError(t, err)

		user, err := userRepo.CreateUser(t.Context(), "Test User", "user@test.dev", hash)
		require.NoError(t, err)
		return user
	}

	t.Run("new service", func(t *testing.T) {
		t.Run("default hasher set", func(t *testing.T) {
			s, err := NewService(Config{Token: TokenConfig{SecretKey: "key"}}, nil)

			require.NoError(t, err)
			require.Equal(t, BcryptHasher{}, s.hasher, "default hasher should be BcryptHasher")
		})

		t.Run("empty secret fail", func(t *testing.T) {
			_, err := NewService(Config{}, nil)

			require.Error(t, err, "service without secret key should be refused")
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("login ok", func(t *testing.T) {
			withTx(t, func(s *AuthService, userRepo repository.UserRepo) {
				created := createUser(t, userRepo, "password123")

				token, user, err := s.Login(t.Context(), "user@test.dev", "password123")

				require.NoError(t, err, "login with correct credentials should succeed")
				require.NotEmpty(t, token, "access token should not be empty")
				require.Equal(t, created.ID, user.ID)
			})
		})

		t.Run("wrong password fail", func(t *testing.T) {
			withTx(t, func(s *AuthService, userRepo repository.UserRepo) {
				createUser(t, userRepo, "password123")

				_, _, err := s.Login(t.Context(), "user@test.dev", "wrong-password")

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrUserNotFound, "wrong password should look like unknown user")
			})
		})

		t.Run("not existed user fail", func(t *testing.T) {
			withTx(t, func(s *AuthService, _ repository.UserRepo) {
				_, _, err := s.Login(t.Context(), "nobody@test.dev", "password123")

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})

	t.Run("GetUserFromRequest", func(t *testing.T) {
		t.Run("valid bearer token ok", func(t *testing.T) {
			withTx(t, func(s *AuthService, userRepo repository.UserRepo) {
				created := createUser(t, userRepo, "password123")
				token, _, err := s.Login(t.Context(), "user@test.dev", "password123")
				require.NoError(t, err)

				r := httptest.NewRequest("GET", "/", nil)
				r.Header.Set("Authorization", "Bearer "+token)

				user, err := s.GetUserFromRequest(t.Context(), r)

				require.NoError(t, err)
				require.Equal(t, created.ID, user.ID)
			})
		})

		t.Run("missing header fail", func(t *testing.T) {
			withTx(t, func(s *AuthService, _ repository.UserRepo) {
				r := httptest.NewRequest("GET", "/", nil)

				_, err := s.GetUserFromRequest(t.Context(), r)

				require.Error(t, err)
				require.ErrorIs(t, err, ErrInvalidToken)
			})
		})

		t.Run("wrong scheme fail", func(t *testing.T) {
			withTx(t, func(s *AuthService, _ repository.UserRepo) {
				r := httptest.NewRequest("GET", "/", nil)
				r.Header.Set("Authorization", "Basic dXNlcjpwd2Q=")

				_, err := s.GetUserFromRequest(t.Context(), r)

				require.Error(t, err)
				require.ErrorIs(t, err, ErrInvalidToken)
			})
		})

		t.Run("garbage token fail", func(t *testing.T) {
			withTx(t, func(s *AuthService, _ repository.UserRepo) {
				r := httptest.NewRequest("GET", "/", nil)
				r.Header.Set("Authorization", "Bearer not-a-token")

				_, err := s.GetUserFromRequest(t.Context(), r)

				require.Error(t, err)
				require.ErrorIs(t, err, ErrInvalidToken)
			})
		})
	})
}
