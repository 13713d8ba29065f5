package service

import (
	"context"
	"net/http"
	"strings"

	"room_rental/internal/apperr"
	"room_rental/internal/db"
	"room_rental/internal/domain"
	"room_rental/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RegisterInput is the body of POST /api/auth/register.
type RegisterInput struct {
	Name     string  `json:"nombre" binding:"required"`
	LastName *string `json:"apellidos"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	Phone    *string `json:"telefono"`
}

// LoginInput is the body of POST /api/auth/login.
type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordInput is the body of PATCH /api/usuario/me/password.
type ChangePasswordInput struct {
	Current string `json:"password_actual" binding:"required"`
	New     string `json:"password_nueva" binding:"required,min=8"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Register creates a tenant account, or reactivates an inactive one owning the same email.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	var invalid []string
	if name == "" {
		invalid = append(invalid, "nombre")
	}
	if !s.validEmail(email) {
		invalid = append(invalid, "email")
	}
	if len(in.Password) < utils.MinPasswordLength {
		invalid = append(invalid, "password")
	}
	if len(invalid) > 0 {
		return nil, apperr.Validation(invalid...)
	}
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	var user domain.User
	err = s.inTx(ctx, func(tx *gorm.DB) error {
		var existing domain.User
		err := db.ForUpdate(tx).Where("email = ?", email).First(&existing).Error
		switch {
		case err == nil:
			if existing.Active {
				return apperr.Conflict(apperr.CodeEmailExists)
			}
			// Reactivation replaces the credentials and revokes anything issued before
			if err := tx.Model(&existing).Updates(map[string]any{
				"nombre":        name,
				"apellidos":     in.LastName,
				"telefono":      in.Phone,
				"password_hash": hash,
				"activo":        true,
				"token_version": gorm.Expr("token_version + 1"),
			}).Error; err != nil {
				return err
			}
			return tx.First(&user, existing.ID).Error
		case db.IsNotFound(err):
			user = domain.User{
				Name:         name,
				LastName:     in.LastName,
				Email:        email,
				PasswordHash: hash,
				Role:         domain.RoleUser,
				Phone:        in.Phone,
				Active:       true,
			}
			if err := tx.Create(&user).Error; err != nil {
				if db.IsUnique(err) {
					return apperr.Conflict(apperr.CodeEmailExists)
				}
				return err
			}
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	token, err := s.issueToken(&user)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID}).Info("user registered")
	return &AuthResult{Token: token, User: &user}, nil
}

// Login verifies credentials. Unknown emails and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	allowed, err := s.throttle.Allow(ctx, email)
	if err != nil {
		logrus.WithError(err).Warn("login throttle unavailable")
	}
	if !allowed {
		s.metrics.LoginThrottled()
		return nil, apperr.New(http.StatusTooManyRequests, apperr.CodeTooManyAttempts)
	}

	var user domain.User
	err = s.conn(ctx).Where("email = ?", email).First(&user).Error
	if db.IsNotFound(err) {
		utils.BurnPasswordCheck(in.Password)
		s.recordFailure(ctx, email)
		return nil, apperr.Unauthorized(apperr.CodeInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(user.PasswordHash, in.Password) {
		s.recordFailure(ctx, email)
		return nil, apperr.Unauthorized(apperr.CodeInvalidCredentials)
	}
	if !user.Active {
		return nil, apperr.Forbidden(apperr.CodeUserInactive)
	}
	if err := s.throttle.Reset(ctx, email); err != nil {
		logrus.WithError(err).Warn("login throttle reset failed")
	}
	token, err := s.issueToken(&user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: &user}, nil
}

func (s *Service) recordFailure(ctx context.Context, email string) {
	if err := s.throttle.Fail(ctx, email); err != nil {
		logrus.WithError(err).Warn("login throttle update failed")
	}
}

// Authenticate resolves a bearer token to a live user row. The row must
// exist, be active and carry the token's version.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := utils.ParseJWT(token, s.cfg.JWTSecret)
	if err != nil {
		return nil, apperr.Unauthorized(apperr.CodeInvalidToken).Wrap(err)
	}
	var user domain.User
	if err := s.conn(ctx).First(&user, claims.UserID).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, apperr.Unauthorized(apperr.CodeInvalidToken)
		}
		return nil, err
	}
	if !user.Active {
		return nil, apperr.Forbidden(apperr.CodeUserInactive)
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, apperr.Unauthorized(apperr.CodeInvalidToken)
	}
	return &user, nil
}

// ChangePassword swaps the caller's password, revokes older tokens and returns a fresh one.
func (s *Service) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) (string, error) {
	if len(in.New) < utils.MinPasswordLength {
		return "", apperr.Validation("password_nueva")
	}
	var user domain.User
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := db.ForUpdate(tx).First(&user, userID).Error; err != nil {
			if db.IsNotFound(err) {
				return apperr.NotFound(apperr.CodeUserNotFound)
			}
			return err
		}
		if !utils.CheckPassword(user.PasswordHash, in.Current) {
			return apperr.Unauthorized(apperr.CodeInvalidCredentials)
		}
		if in.Current == in.New {
			return apperr.BadRequest(apperr.CodeSamePassword)
		}
		hash, err := utils.HashPassword(in.New, s.cfg.BcryptCost)
		if err != nil {
			return err
		}
		if err := tx.Model(&user).Updates(map[string]any{
			"password_hash": hash,
			"token_version": gorm.Expr("token_version + 1"),
		}).Error; err != nil {
			return err
		}
		return tx.First(&user, userID).Error
	})
	if err != nil {
		return "", err
	}
	return s.issueToken(&user)
}

func (s *Service) issueToken(u *domain.User) (string, error) {
	return utils.GenerateJWT(u.ID, u.Role, u.TokenVersion, s.cfg.JWTSecret, s.cfg.TokenTTL)
}
