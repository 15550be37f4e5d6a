package customer

import (
	"context"
	"errors"

	"github.com/zivadmn8866/ziva-oneroof/internal/auth"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*Customer, string, string, error)
	Login(ctx context.Context, req LoginRequest) (*Customer, string, string, error)
	GetByID(ctx context.Context, customerID int) (*Customer, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *Customer, error)
	Deactivate(ctx context.Context, customerID int) error
}

type service struct {
	repo      Repository
	jwtSecret string
}

func NewService(repo Repository, jwtSecret string) Service {
	return &service{
		repo:      repo,
		jwtSecret: jwtSecret,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*Customer, string, string, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, "", "", err
	}
	if exists {
		return nil, "", "", ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", "", err
	}

	c, err := s.repo.Create(ctx, req.Name, req.Email, passwordHash, RoleCustomer)
	if err != nil {
		return nil, "", "", err
	}

	accessToken, refreshToken, err := auth.GenerateTokens(c.ID, c.Email, c.Role, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	return c, accessToken, refreshToken, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*Customer, string, string, error) {
	c, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if !auth.CheckPassword(c.PasswordHash, req.Password) {
		return nil, "", "", ErrInvalidCredentials
	}
	if !c.Active {
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := auth.GenerateTokens(c.ID, c.Email, c.Role, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	return c, accessToken, refreshToken, nil
}

func (s *service) GetByID(ctx context.Context, customerID int) (*Customer, error) {
	return s.repo.FindByID(ctx, customerID)
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *Customer, error) {
	claims, err := auth.ValidateRefreshToken(refreshToken, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	c, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", nil, err
	}
	if !c.Active {
		return "", nil, ErrInvalidCredentials
	}

	accessToken, err := auth.GenerateAccessToken(c.ID, c.Email, c.Role, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	return accessToken, c, nil
}

func (s *service) Deactivate(ctx context.Context, customerID int) error {
	return s.repo.Deactivate(ctx, customerID)
}
