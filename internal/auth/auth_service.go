package auth

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	autherrors "hrms/internal/auth/errors"
	"hrms/internal/user"
)

const tokenTTL = 12 * time.Hour

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
}

type service struct {
	users  user.Repository
	logger *zap.Logger
}

func NewService(users user.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{users: users, logger: l}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	u, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LoginResponse{}, autherrors.ErrInvalidCredentials
		}
		return LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login password mismatch", zap.String("email", req.Email))
		return LoginResponse{}, autherrors.ErrInvalidCredentials
	}
	if !u.IsActive {
		return LoginResponse{}, autherrors.ErrInactiveUser
	}

	token, err := IssueToken(u)
	if err != nil {
		s.logger.Error("issue token failed", zap.Error(err))
		return LoginResponse{}, err
	}

	s.logger.Info("login success", zap.String("user_id", u.ID.String()))
	return LoginResponse{
		AccessToken: token,
		UserID:      u.ID.String(),
		CompanyID:   u.CompanyID.String(),
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
	}, nil
}

// IssueToken signs a JWT carrying the identity plus the token version. The
// version is checked on every request; bumping it on the user invalidates
// every previously issued token.
func IssueToken(u *user.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":       u.ID.String(),
		"company_id":    u.CompanyID.String(),
		"token_version": u.TokenVersion,
		"exp":           time.Now().Add(tokenTTL).Unix(),
		"iat":           time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}
