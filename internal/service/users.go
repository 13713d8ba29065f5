package service

import (
	"context"
	"strings"

	"room_rental/internal/apperr"
	"room_rental/internal/db"
	"room_rental/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ProfilePatch is the body of PATCH /api/usuario/me.
type ProfilePatch struct {
	Name      Optional[string] `json:"nombre"`
	LastName  Optional[string] `json:"apellidos"`
	Phone     Optional[string] `json:"telefono"`
	AvatarURL Optional[string] `json:"foto_perfil_url"`
	Email     Optional[string] `json:"email"`
}

// Me returns the caller's row.
func (s *Service) Me(ctx context.Context, userID uint) (*domain.User, error) {
	return s.loadUser(s.conn(ctx), userID)
}

func (s *Service) loadUser(tx *gorm.DB, id uint) (*domain.User, error) {
	var user domain.User
	if err := tx.First(&user, id).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, apperr.NotFound(apperr.CodeUserNotFound)
		}
		return nil, err
	}
	return &user, nil
}

// profileUpdates validates the profile fields shared by self and admin edits.
func (s *Service) profileUpdates(in ProfilePatch) (map[string]any, []string) {
	set := map[string]any{}
	var invalid []string
	if in.Name.Set {
		name := strings.TrimSpace(in.Name.Value)
		if in.Name.Null || name == "" {
			invalid = append(invalid, "nombre")
		} else {
			set["nombre"] = name
		}
	}
	if in.LastName.Set {
		set["apellidos"] = in.LastName.nullable()
	}
	if in.Phone.Set {
		set["telefono"] = in.Phone.nullable()
	}
	if in.AvatarURL.Set {
		if !in.AvatarURL.Null && !s.validURL(in.AvatarURL.Value) {
			invalid = append(invalid, "foto_perfil_url")
		} else {
			set["foto_perfil_url"] = in.AvatarURL.nullable()
		}
	}
	if in.Email.Set {
		email := normalizeEmail(in.Email.Value)
		if in.Email.Null || !s.validEmail(email) {
			invalid = append(invalid, "email")
		} else {
			set["email"] = email
		}
	}
	return set, invalid
}

// UpdateMe edits the caller's profile.
func (s *Service) UpdateMe(ctx context.Context, userID uint, in ProfilePatch) (*domain.User, error) {
	set, invalid := s.profileUpdates(in)
	if len(invalid) > 0 {
		return nil, apperr.Validation(invalid...)
	}
	if len(set) == 0 {
		return nil, apperr.BadRequest(apperr.CodeNoFieldsToUpdate)
	}
	var user *domain.User
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(&domain.User{}).Where("id = ?", userID).Updates(set).Error; err != nil {
			if db.IsUnique(err) {
				return apperr.Conflict(apperr.CodeEmailExists)
			}
			return err
		}
		var err error
		user, err = s.loadUser(tx, userID)
		return err
	})
	return user, err
}

// DeactivateMe soft-deletes the caller, revokes their tokens and ends their stay.
func (s *Service) DeactivateMe(ctx context.Context, userID uint) error {
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		return s.deactivateUser(tx, userID, domain.StayLeft)
	})
	if err == nil {
		logrus.WithField("user_id", userID).Info("user deactivated own account")
	}
	return err
}

// deactivateUser flips activo, bumps token_version and closes any active stay with stayStatus.
func (s *Service) deactivateUser(tx *gorm.DB, userID uint, stayStatus string) error {
	res := tx.Model(&domain.User{}).Where("id = ?", userID).Updates(map[string]any{
		"activo":        false,
		"token_version": gorm.Expr("token_version + 1"),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(apperr.CodeUserNotFound)
	}
	return s.closeActiveStayOf(tx, userID, stayStatus)
}
