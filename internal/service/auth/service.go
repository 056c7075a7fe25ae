package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/internal/repository"
	"github.com/cuidapet/clinic-api/pkg/auth"
	"github.com/cuidapet/clinic-api/pkg/errors"
	"github.com/cuidapet/clinic-api/pkg/metrics"
	"github.com/cuidapet/clinic-api/pkg/security"
)

type Service struct {
	userRepo repository.UserRepository
	sessions repository.SessionStore
	jwtSvc   auth.JWTService
	hasher   security.PasswordHasher
	metrics  *metrics.Metrics
}

func NewService(userRepo repository.UserRepository, sessions repository.SessionStore,
	jwtSvc auth.JWTService, hasher security.PasswordHasher, m *metrics.Metrics) *Service {
	return &Service{
		userRepo: userRepo,
		sessions: sessions,
		jwtSvc:   jwtSvc,
		hasher:   hasher,
		metrics:  m,
	}
}

// SignUp registers a new client account.
func (s *Service) SignUp(ctx context.Context, req *model.SignUpRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	if existing != nil {
		return nil, errors.Conflict("email already registered", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if err == security.ErrPasswordTooShort {
			return nil, errors.BadRequest(err.Error(), err)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleClient,
		Name:         strings.TrimSpace(req.Name),
		Surname:      strings.TrimSpace(req.Surname),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Str("user_id", user.ID.String()).Msg("user signed up")
	return s.userRepo.Get(ctx, user.ID)
}

// SignIn checks the credentials and issues an access token.
func (s *Service) SignIn(ctx context.Context, req *model.SignInRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.Unauthorized("invalid credentials", nil)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, errors.Unauthorized("invalid credentials", nil)
	}

	token, claims, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	s.metrics.SessionsIssued.Inc()

	return &model.TokenResponse{
		AccessToken: token,
		ExpiresAt:   claims.ExpiresAt,
		User:        user,
	}, nil
}

// SignOut revokes the token until it would have expired anyway.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return errors.Unauthorized("invalid token", err)
	}
	if err := s.sessions.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// Authenticate validates a token, checks it was not revoked and that its
// user still exists. The role comes from the user record so a role change
// or a deletion takes effect on the next request.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.TokenClaims, error) {
	claims, _, err := s.authenticate(ctx, token)
	return claims, err
}

func (s *Service) authenticate(ctx context.Context, token string) (*model.TokenClaims, *model.User, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, nil, errors.Unauthorized("invalid token", err)
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check session: %w", err)
	}
	if revoked {
		return nil, nil, errors.Unauthorized("session has ended", nil)
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, nil, errors.Unauthorized("user no longer exists", err)
		}
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}
	claims.Role = user.Role
	return claims, user, nil
}

// Session returns the claims of a live token together with the current
// user record.
func (s *Service) Session(ctx context.Context, token string) (*model.Session, error) {
	claims, user, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	return &model.Session{Claims: claims, User: user}, nil
}
