package auth

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/user"
)

// Account is the slice of a user row authentication needs.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         string
	Status       string
	DepartmentID *int64
}

func (a *Account) Active() bool {
	return a.Status != user.StatusSuspended && a.Status != user.StatusTerminated
}

func (a *Account) Principal() *internal.User {
	return &internal.User{
		ID:           a.ID,
		Email:        a.Email,
		Role:         a.Role,
		DepartmentID: a.DepartmentID,
		Permissions:  PermissionsForRole(a.Role),
	}
}

type RepositoryAPI interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id int64) (*Account, error)
}

// RevocationList remembers logged out tokens until they would have expired anyway.
type RevocationList interface {
	Revoke(tokenID string, until time.Time)
	IsRevoked(tokenID string) bool
}

type MemoryRevocationList struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	clock   clock.Clock
}

func NewMemoryRevocationList(clk clock.Clock) *MemoryRevocationList {
	return &MemoryRevocationList{revoked: make(map[string]time.Time), clock: clk}
}

func (l *MemoryRevocationList) Revoke(tokenID string, until time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	for id, exp := range l.revoked {
		if !exp.After(now) {
			delete(l.revoked, id)
		}
	}
	l.revoked[tokenID] = until
}

func (l *MemoryRevocationList) IsRevoked(tokenID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	exp, ok := l.revoked[tokenID]
	return ok && exp.After(l.clock.Now())
}

type Service struct {
	repo           RepositoryAPI
	tokenGenerator TokenGenerator
	revocations    RevocationList
	bcryptCost     int
	accessTTL      time.Duration
	logger         *slog.Logger
}

func NewService(repo RepositoryAPI, tokenGen TokenGenerator, revocations RevocationList, bcryptCost int, accessTTL time.Duration, logger *slog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		revocations:    revocations,
		bcryptCost:     bcryptCost,
		accessTTL:      accessTTL,
		logger:         logger,
	}
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	account, err := s.repo.FindByEmail(ctx, dto.Email)
	if err != nil {
		if internal.IsErrorType(err, internal.ErrorTypeNotFound) {
			return AuthTokens{}, internal.ErrInvalidCredentials
		}
		s.logger.Error("failed to load account", "error", err)
		return AuthTokens{}, internal.NewInternalError("failed to authenticate", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}
	if !account.Active() {
		return AuthTokens{}, internal.ErrUserInactive
	}

	s.logger.Info("user logged in", "user_id", account.ID)
	return s.issue(account)
}

// RefreshTokens rotates a refresh token: the presented one is revoked and a new pair issued.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return AuthTokens{}, err
	}
	if s.revocations.IsRevoked(claims.ID) {
		return AuthTokens{}, internal.ErrInvalidToken
	}

	account, err := s.accountFor(ctx, claims)
	if err != nil {
		return AuthTokens{}, err
	}

	s.revocations.Revoke(claims.ID, claims.ExpiresAt.Time)
	return s.issue(account)
}

// Logout revokes the access token and, when given, the refresh token.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) error {
	claims, err := s.tokenGenerator.ValidateToken(accessToken, TokenTypeAccess)
	if err != nil {
		return err
	}
	s.revocations.Revoke(claims.ID, claims.ExpiresAt.Time)

	if refreshToken != "" {
		refreshClaims, err := s.tokenGenerator.ValidateToken(refreshToken, TokenTypeRefresh)
		if err != nil {
			return err
		}
		if refreshClaims.UserID != claims.UserID {
			return internal.ErrInvalidToken
		}
		s.revocations.Revoke(refreshClaims.ID, refreshClaims.ExpiresAt.Time)
	}
	s.logger.Info("user logged out", "user_id", claims.UserID)
	return nil
}

// Principal resolves an access token into the user attached to request contexts.
func (s *Service) Principal(ctx context.Context, accessToken string) (*internal.User, error) {
	claims, err := s.tokenGenerator.ValidateToken(accessToken, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	if s.revocations.IsRevoked(claims.ID) {
		return nil, internal.ErrInvalidToken
	}
	account, err := s.accountFor(ctx, claims)
	if err != nil {
		return nil, err
	}
	return account.Principal(), nil
}

func (s *Service) accountFor(ctx context.Context, claims *Claims) (*Account, error) {
	id, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if internal.IsErrorType(err, internal.ErrorTypeNotFound) {
			return nil, internal.ErrInvalidToken
		}
		s.logger.Error("failed to load account", "error", err, "user_id", id)
		return nil, internal.NewInternalError("failed to load account", err)
	}
	if !account.Active() {
		return nil, internal.ErrUserInactive
	}
	return account, nil
}

func (s *Service) issue(account *Account) (AuthTokens, error) {
	subject := Subject{UserID: account.ID, Email: account.Email, Role: account.Role}

	accessToken, err := s.tokenGenerator.GenerateAccessToken(subject)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue token", err)
	}
	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(subject)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue token", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// HashPassword hashes with the configured bcrypt cost.
func (s *Service) HashPassword(password string) (string, error) {
	return HashPassword(password, s.bcryptCost)
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
