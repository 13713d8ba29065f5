package service

import (
	"context"
	"net/url"

	"room_rental/internal/apperr"
	"room_rental/internal/authz"
	"room_rental/internal/db"
	"room_rental/internal/domain"
	"room_rental/internal/query"
	"room_rental/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AdminUserPatch is the body of PATCH /api/admin/usuario/:id.
type AdminUserPatch struct {
	ProfilePatch
	Role   Optional[string] `json:"rol"`
	Active Optional[bool]   `json:"activo"`
}

// SetPasswordInput is the body of PATCH /api/admin/usuario/:id/password.
type SetPasswordInput struct {
	Password string `json:"password" binding:"required,min=8"`
}

type UserPage struct {
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"totalPages"`
	Users      []domain.User `json:"users"`
}

var userListSpec = query.Spec{
	Filters: []query.Filter{
		{Key: "q", Kind: query.String, Clause: "(LOWER(nombre) LIKE ? OR LOWER(email) LIKE ?)", Transform: query.Like},
		{Key: "rol", Kind: query.String, Clause: "rol = ?"},
		{Key: "activo", Kind: query.Bool, Clause: "activo = ?"},
	},
	Sorts: map[string]string{
		"newest": "fecha_registro DESC, id DESC",
		"oldest": "fecha_registro ASC, id ASC",
		"nombre": "nombre ASC, id ASC",
	},
	DefaultSort:  "newest",
	DefaultLimit: 20,
}

// ListUsers pages through every account with optional q, rol and activo filters.
func (s *Service) ListUsers(ctx context.Context, values url.Values) (*UserPage, error) {
	if rol := values.Get("rol"); rol != "" && !domain.ValidRole(rol) {
		return nil, apperr.BadRequest(apperr.CodeInvalidRole)
	}
	pg := query.ParsePage(values, userListSpec.DefaultLimit)
	q, err := userListSpec.Where(s.conn(ctx).Model(&domain.User{}), values)
	if err != nil {
		return nil, err
	}
	q = q.Session(&gorm.Session{})

	var total int64 // Total user count
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	users := []domain.User{}
	if err := q.Order(userListSpec.Order(values.Get("sort"))).Offset(pg.Offset()).Limit(pg.Limit).Find(&users).Error; err != nil {
		return nil, err
	}
	return &UserPage{Page: pg.Page, Limit: pg.Limit, Total: total, TotalPages: pg.TotalPages(total), Users: users}, nil
}

// GetUser returns any account by id.
func (s *Service) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	return s.loadUser(s.conn(ctx), id)
}

// AdminUpdateUser edits profile, role and active flag of any account.
// Deactivation or a role change away from user revokes tokens and kicks the
// user out of their room.
func (s *Service) AdminUpdateUser(ctx context.Context, p authz.Principal, id uint, in AdminUserPatch) (*domain.User, error) {
	if err := authz.Admin().Check(nil, p); err != nil {
		return nil, err
	}
	set, invalid := s.profileUpdates(in.ProfilePatch)
	if len(invalid) > 0 {
		return nil, apperr.Validation(invalid...)
	}
	if in.Role.Set {
		if in.Role.Null || !domain.ValidRole(in.Role.Value) {
			return nil, apperr.BadRequest(apperr.CodeInvalidRole)
		}
		set["rol"] = in.Role.Value
	}
	deactivate := false
	if in.Active.Set {
		if in.Active.Null {
			return nil, apperr.Validation("activo")
		}
		if in.Active.Value {
			set["activo"] = true
		} else {
			deactivate = true
		}
	}
	if len(set) == 0 && !deactivate {
		return nil, apperr.BadRequest(apperr.CodeNoFieldsToUpdate)
	}

	var user *domain.User
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		current, err := s.loadUser(db.ForUpdate(tx), id)
		if err != nil {
			return err
		}
		roleChanged := false
		if role, ok := set["rol"]; ok && role != current.Role {
			set["token_version"] = gorm.Expr("token_version + 1")
			roleChanged = true
		}
		if len(set) > 0 {
			if err := tx.Model(&domain.User{}).Where("id = ?", id).Updates(set).Error; err != nil {
				if db.IsUnique(err) {
					return apperr.Conflict(apperr.CodeDuplicateEmail)
				}
				return err
			}
		}
		// Only plain users may hold a room
		if roleChanged && in.Role.Value != domain.RoleUser {
			if err := s.closeActiveStayOf(tx, id, domain.StayKicked); err != nil {
				return err
			}
		}
		if deactivate && current.Active {
			if err := s.deactivateUser(tx, id, domain.StayKicked); err != nil {
				return err
			}
		}
		user, err = s.loadUser(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": id, "by": p.ID}).Info("user updated by admin")
	return user, nil
}

// AdminSetPassword replaces a user's password and revokes their tokens.
func (s *Service) AdminSetPassword(ctx context.Context, id uint, in SetPasswordInput) error {
	if len(in.Password) < utils.MinPasswordLength {
		return apperr.Validation("password")
	}
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	res := s.conn(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
		"password_hash": hash,
		"token_version": gorm.Expr("token_version + 1"),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(apperr.CodeUserNotFound)
	}
	return nil
}

// AdminDeactivateUser soft-deletes an account.
func (s *Service) AdminDeactivateUser(ctx context.Context, p authz.Principal, id uint) error {
	if err := authz.Admin().Check(nil, p); err != nil {
		return err
	}
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		return s.deactivateUser(tx, id, domain.StayKicked)
	})
	if err == nil {
		logrus.WithFields(logrus.Fields{"user_id": id, "by": p.ID}).Info("user deactivated by admin")
	}
	return err
}

// BootstrapAdmin creates an admin account, or promotes and reactivates the
// account that already owns the email. Used by pisoctl create-admin.
func (s *Service) BootstrapAdmin(ctx context.Context, in RegisterInput) (*domain.User, error) {
	res, err := s.Register(ctx, in)
	if err == nil {
		if err := s.conn(ctx).Model(res.User).Update("rol", domain.RoleAdmin).Error; err != nil {
			return nil, err
		}
		res.User.Role = domain.RoleAdmin
		return res.User, nil
	}
	if apperr.CodeOf(err) != apperr.CodeEmailExists {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	var user domain.User
	err = s.inTx(ctx, func(tx *gorm.DB) error {
		if err := db.ForUpdate(tx).Where("email = ?", normalizeEmail(in.Email)).First(&user).Error; err != nil {
			return err
		}
		if err := tx.Model(&user).Updates(map[string]any{
			"rol":           domain.RoleAdmin,
			"password_hash": hash,
			"token_version": gorm.Expr("token_version + 1"),
		}).Error; err != nil {
			return err
		}
		return s.closeActiveStayOf(tx, user.ID, domain.StayKicked)
	})
	if err != nil {
		return nil, err
	}
	if err := s.conn(ctx).First(&user, user.ID).Error; err != nil {
		return nil, err
	}
	logrus.WithField("user_id", user.ID).Info("admin promoted")
	return &user, nil
}
