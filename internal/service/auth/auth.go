package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Josczesny/BancoBrasil/internal/apperrors"
	"github.com/Josczesny/BancoBrasil/internal/models"
	"github.com/Josczesny/BancoBrasil/internal/repository"
)

type Config struct {
	Token TokenConfig

	// Hasher used on login; bcrypt when nil
	Hasher PasswordHasher
}

// AuthService issues access tokens on login and resolves bearer tokens
// back to users. The ledger never sees any of this: it receives account
// ids and amounts only.
type AuthService struct {
	tokens   *TokenManager
	hasher   PasswordHasher
	userRepo repository.UserRepo
}

func NewService(cfg Config, userRepo repository.UserRepo) (*AuthService, error) {
	tokens, err := NewTokenManager(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	return &AuthService{
		tokens:   tokens,
		hasher:   hasher,
		userRepo: userRepo,
	}, nil
}

// Login checks credentials and returns a signed access token.
// Wrong email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email string, password string) (string, models.User, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", models.User{}, apperrors.ErrUserNotFound
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return "", models.User{}, apperrors.ErrUserNotFound
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return "", models.User{}, err
	}

	return token, user, nil
}

// GetUserFromRequest authenticates the request by its bearer token
func (s *AuthService) GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get("Authorization")
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return models.User{}, ErrInvalidToken
	}

	userID, err := s.tokens.Parse(tokenString)
	if err != nil {
		return models.User{}, err
	}

	return s.userRepo.GetUserByID(ctx, userID)
}
