package service

import (
	"context"
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/diagnosis/bnb-marketplace/internal/domain"
	"github.com/diagnosis/bnb-marketplace/internal/repository"
	"github.com/diagnosis/bnb-marketplace/pkg/auth"
	"github.com/diagnosis/bnb-marketplace/pkg/logger"
	"github.com/diagnosis/bnb-marketplace/pkg/telemetry"
	"go.opentelemetry.io/otel/trace"
)

var errInvalidCredentials = domain.Invalid("Invalid login credentials")

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserInfo, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.Session, error)
	// Authenticate validates an access token and returns the caller's user ID.
	Authenticate(ctx context.Context, accessToken string) (string, error)
	Me(ctx context.Context, userID string) (*domain.UserInfo, error)
	UpdateProfile(ctx context.Context, userID string, req *domain.ProfileUpdateRequest) (*domain.Profile, error)
}

type authService struct {
	userRepo repository.UserRepository
	issuer   *auth.Issuer
	params   *argon2id.Params
	tracer   trace.Tracer
}

func NewAuthService(userRepo repository.UserRepository, issuer *auth.Issuer) AuthService {
	return &authService{
		userRepo: userRepo,
		issuer:   issuer,
		params:   argon2id.DefaultParams,
		tracer:   telemetry.Tracer("bnb/service/auth"),
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserInfo, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Register")
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	passwordHash, err := argon2id.CreateHash(req.Password, s.params)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, req.Email, passwordHash, req.Name)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "User registered", "user_id", user.ID)
	return user.ToUserInfo(), nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, errInvalidCredentials
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, errInvalidCredentials
	}

	return s.newSession(user.ID, user.Email, true)
}

// Refresh exchanges a refresh token for a new access token. The refresh token
// itself is not rotated.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	_, span := s.tracer.Start(ctx, "AuthService.Refresh")
	defer span.End()

	if refreshToken == "" {
		return nil, domain.ErrUnauthorized
	}
	claims, err := s.issuer.Parse(refreshToken, auth.TypeRefresh)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	return s.newSession(claims.UserID(), claims.Email, false)
}

func (s *authService) newSession(userID, email string, withRefresh bool) (*domain.Session, error) {
	access, err := s.issuer.NewAccessToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}
	session := &domain.Session{AccessToken: access, AccessTTL: s.issuer.AccessTTL()}

	if withRefresh {
		refresh, err := s.issuer.NewRefreshToken(userID, email)
		if err != nil {
			return nil, fmt.Errorf("failed to create refresh token: %w", err)
		}
		session.RefreshToken = refresh
		session.RefreshTTL = s.issuer.RefreshTTL()
	}
	return session, nil
}

func (s *authService) Authenticate(_ context.Context, accessToken string) (string, error) {
	if accessToken == "" {
		return "", domain.ErrUnauthorized
	}
	claims, err := s.issuer.Parse(accessToken, auth.TypeAccess)
	if err != nil {
		return "", domain.ErrUnauthorized
	}
	return claims.UserID(), nil
}

func (s *authService) Me(ctx context.Context, userID string) (*domain.UserInfo, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Me")
	defer span.End()

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		// The token outlived its account.
		return nil, domain.ErrUnauthorized
	}
	return user.ToUserInfo(), nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID string, req *domain.ProfileUpdateRequest) (*domain.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.UpdateProfile")
	defer span.End()

	req.Normalize()
	profile, err := s.userRepo.UpdateProfile(ctx, userID, *req)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}
