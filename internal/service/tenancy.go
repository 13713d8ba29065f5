package service

import (
	"context"
	"time"

	"room_rental/internal/apperr"
	"room_rental/internal/authz"
	"room_rental/internal/db"
	"room_rental/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// JoinInput is the body of POST /api/usuario-habitacion/join. Tenants join
// themselves; advertisers and admins name the tenant to enroll.
type JoinInput struct {
	RoomID uint    `json:"habitacionId" binding:"required"`
	UserID *uint   `json:"usuarioId"`
	Email  *string `json:"email"`
}

type JoinResult struct {
	Stay       domain.Stay `json:"stay"`
	PropertyID uint        `json:"piso_id"`
}

// StayView is an active stay with the room and piso it belongs to.
type StayView struct {
	ID           uint       `json:"id"`
	UserID       uint       `gorm:"column:usuario_id" json:"usuario_id"`
	RoomID       uint       `gorm:"column:habitacion_id" json:"habitacion_id"`
	EnteredAt    time.Time  `gorm:"column:fecha_entrada" json:"fecha_entrada"`
	LeftAt       *time.Time `gorm:"column:fecha_salida" json:"fecha_salida"`
	Status       string     `gorm:"column:estado" json:"estado"`
	RoomTitle    string     `gorm:"column:habitacion_titulo" json:"habitacion_titulo"`
	MonthlyPrice int        `gorm:"column:precio_mensual" json:"precio_mensual"`
	PropertyID   uint       `gorm:"column:piso_id" json:"piso_id"`
	City         string     `gorm:"column:ciudad" json:"ciudad"`
	Address      string     `gorm:"column:direccion" json:"direccion"`
}

// Roommate is a user currently living in the same piso.
type Roommate struct {
	ID        uint      `json:"id"`
	Name      string    `gorm:"column:nombre" json:"nombre"`
	LastName  *string   `gorm:"column:apellidos" json:"apellidos"`
	AvatarURL *string   `gorm:"column:foto_perfil_url" json:"foto_perfil_url"`
	RoomID    uint      `gorm:"column:habitacion_id" json:"habitacion_id"`
	RoomTitle string    `gorm:"column:habitacion_titulo" json:"habitacion_titulo"`
	EnteredAt time.Time `gorm:"column:fecha_entrada" json:"fecha_entrada"`
}

// Join opens an active stay and marks the room unavailable. All checks and
// both writes share one transaction; the active-stay unique indexes decide
// races the checks cannot see.
func (s *Service) Join(ctx context.Context, p authz.Principal, in JoinInput) (*JoinResult, error) {
	selfService := p.Role == domain.RoleUser
	if selfService && in.UserID != nil && *in.UserID != p.ID {
		return nil, apperr.Forbidden(apperr.CodeForbidden)
	}
	if !selfService && in.UserID == nil && (in.Email == nil || normalizeEmail(*in.Email) == "") {
		return nil, apperr.Validation("usuarioId", "email")
	}

	var res JoinResult
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		var room domain.Room
		if err := authz.LoadRoom(tx, in.RoomID, true, &room); err != nil {
			return err
		}
		var piso domain.Property
		if err := authz.LoadProperty(tx, room.PropertyID, false, &piso); err != nil {
			return err
		}
		if !piso.Active {
			return apperr.Conflict(apperr.CodePisoInactive)
		}
		if !room.Active {
			return apperr.Conflict(apperr.CodeHabitacionInactive)
		}
		if p.Role == domain.RoleAdvertiser && piso.ManagerID != p.ID {
			return apperr.Forbidden(apperr.CodeForbiddenNotOwner)
		}

		target, err := s.joinTarget(tx, p, in)
		if err != nil {
			return err
		}
		if selfService && target.ID != p.ID {
			return apperr.Forbidden(apperr.CodeForbidden)
		}
		if !target.Active {
			return apperr.Conflict(apperr.CodeUserInactive)
		}
		if target.Role != domain.RoleUser {
			return apperr.Conflict(apperr.CodeRoleNotAllowedForStay)
		}

		if open, err := openStayCount(tx, "usuario_id", target.ID); err != nil {
			return err
		} else if open > 0 {
			return apperr.Conflict(apperr.CodeUserHasActiveStay)
		}
		if open, err := openStayCount(tx, "habitacion_id", room.ID); err != nil {
			return err
		} else if open > 0 {
			return apperr.Conflict(apperr.CodeRoomAlreadyOccupied)
		}
		if !room.Available {
			return apperr.Conflict(apperr.CodeRoomNotAvailable)
		}

		stay := domain.Stay{UserID: target.ID, RoomID: room.ID, EnteredAt: s.now(), Status: domain.StayActive}
		if err := tx.Create(&stay).Error; err != nil {
			if db.IsUnique(err) {
				return apperr.Conflict(apperr.CodeActiveStayConflict)
			}
			return err
		}
		if err := tx.Model(&domain.Room{}).Where("id = ?", room.ID).Update("disponible", false).Error; err != nil {
			return err
		}
		res = JoinResult{Stay: stay, PropertyID: piso.ID}
		return nil
	})
	if err != nil {
		if db.IsUnique(err) {
			return nil, apperr.Conflict(apperr.CodeActiveStayConflict).Wrap(err)
		}
		return nil, err
	}
	s.metrics.StayTransition(domain.StayActive)
	logrus.WithFields(logrus.Fields{
		"stay_id":       res.Stay.ID,
		"usuario_id":    res.Stay.UserID,
		"habitacion_id": res.Stay.RoomID,
		"by":            p.ID,
	}).Info("stay opened")
	return &res, nil
}

// joinTarget resolves who is moving in: the caller for self-service, else the named user.
func (s *Service) joinTarget(tx *gorm.DB, p authz.Principal, in JoinInput) (*domain.User, error) {
	q := db.ForUpdate(tx)
	var target domain.User
	var err error
	switch {
	case in.UserID != nil:
		err = q.First(&target, *in.UserID).Error
	case in.Email != nil && normalizeEmail(*in.Email) != "":
		err = q.Where("email = ?", normalizeEmail(*in.Email)).First(&target).Error
	default:
		err = q.First(&target, p.ID).Error
	}
	if db.IsNotFound(err) {
		return nil, apperr.NotFound(apperr.CodeUserNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &target, nil
}

// Leave closes the caller's active stay and makes the room available again.
func (s *Service) Leave(ctx context.Context, p authz.Principal) (*domain.Stay, error) {
	var stay domain.Stay
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		err := db.ForUpdate(tx).Where("usuario_id = ? AND fecha_salida IS NULL", p.ID).First(&stay).Error
		if db.IsNotFound(err) {
			return apperr.Conflict(apperr.CodeNoActiveStay)
		}
		if err != nil {
			return err
		}
		if err := s.closeStay(tx, &stay, domain.StayLeft); err != nil {
			if apperr.Is(err, apperr.CodeStayAlreadyClosed) {
				return apperr.Conflict(apperr.CodeNoActiveStay)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.StayTransition(domain.StayLeft)
	return &stay, nil
}

// Kick lets an admin or the piso's manager close somebody else's stay.
func (s *Service) Kick(ctx context.Context, p authz.Principal, stayID uint) (*domain.Stay, error) {
	var stay domain.Stay
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := db.ForUpdate(tx).First(&stay, stayID).Error; err != nil {
			if db.IsNotFound(err) {
				return apperr.NotFound(apperr.CodeStayNotFound)
			}
			return err
		}
		if err := authz.RoomManager(stay.RoomID).Check(tx, p); err != nil {
			return err
		}
		if !stay.Open() {
			return apperr.Conflict(apperr.CodeStayAlreadyClosed)
		}
		return s.closeStay(tx, &stay, domain.StayKicked)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.StayTransition(domain.StayKicked)
	logrus.WithFields(logrus.Fields{"stay_id": stay.ID, "by": p.ID}).Info("stay closed by manager")
	return &stay, nil
}

// closeStay ends an open stay with status and frees its room. The
// fecha_salida IS NULL guard makes a concurrent close lose cleanly.
func (s *Service) closeStay(tx *gorm.DB, stay *domain.Stay, status string) error {
	at := s.now()
	res := tx.Model(&domain.Stay{}).
		Where("id = ? AND fecha_salida IS NULL", stay.ID).
		Updates(map[string]any{"fecha_salida": at, "estado": status})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict(apperr.CodeStayAlreadyClosed)
	}
	if err := tx.Model(&domain.Room{}).Where("id = ?", stay.RoomID).Update("disponible", true).Error; err != nil {
		return err
	}
	stay.LeftAt = &at
	stay.Status = status
	stay.UpdatedAt = at
	return nil
}

// closeActiveStayOf closes the user's open stay if there is one.
func (s *Service) closeActiveStayOf(tx *gorm.DB, userID uint, status string) error {
	var stays []domain.Stay
	if err := db.ForUpdate(tx).Where("usuario_id = ? AND fecha_salida IS NULL", userID).Find(&stays).Error; err != nil {
		return err
	}
	for i := range stays {
		if err := s.closeStay(tx, &stays[i], status); err != nil {
			return err
		}
		s.metrics.StayTransition(status)
	}
	return nil
}

func openStayCount(tx *gorm.DB, column string, id uint) (int64, error) {
	var n int64
	err := tx.Model(&domain.Stay{}).Where(column+" = ? AND fecha_salida IS NULL", id).Count(&n).Error
	return n, err
}

// MyStay returns the caller's active stay, or nil when there is none.
func (s *Service) MyStay(ctx context.Context, userID uint) (*StayView, error) {
	var rows []StayView
	err := s.conn(ctx).Table("usuario_habitacion AS uh").
		Select(`uh.id, uh.usuario_id, uh.habitacion_id, uh.fecha_entrada, uh.fecha_salida, uh.estado,
			h.titulo AS habitacion_titulo, h.precio_mensual, h.piso_id, p.ciudad, p.direccion`).
		Joins("JOIN habitacion h ON h.id = uh.habitacion_id").
		Joins("JOIN piso p ON p.id = h.piso_id").
		Where("uh.usuario_id = ? AND uh.fecha_salida IS NULL", userID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Roommates lists the other active tenants of a piso to its residents, its
// manager and admins. The denial code follows the caller's role.
func (s *Service) Roommates(ctx context.Context, p authz.Principal, pisoID uint) ([]Roommate, error) {
	tx := s.conn(ctx)
	var piso domain.Property
	if err := authz.LoadProperty(tx, pisoID, false, &piso); err != nil {
		return nil, err
	}
	if !piso.Active {
		return nil, apperr.Conflict(apperr.CodePisoInactive)
	}
	manager := authz.PropertyManager(pisoID).Deny(apperr.CodeForbiddenNotOwner)
	capability := authz.AnyOf(authz.Resident(pisoID), manager)
	if p.Role == domain.RoleAdvertiser {
		capability = authz.AnyOf(manager, authz.Resident(pisoID))
	}
	if err := capability.Check(tx, p); err != nil {
		return nil, err
	}

	rows := []Roommate{}
	err := tx.Table("usuario_habitacion AS uh").
		Select(`u.id, u.nombre, u.apellidos, u.foto_perfil_url,
			h.id AS habitacion_id, h.titulo AS habitacion_titulo, uh.fecha_entrada`).
		Joins("JOIN habitacion h ON h.id = uh.habitacion_id").
		Joins("JOIN usuario u ON u.id = uh.usuario_id").
		Where("h.piso_id = ? AND uh.fecha_salida IS NULL AND u.activo = ? AND u.id <> ?", pisoID, true, p.ID).
		Order("uh.fecha_entrada ASC, u.id ASC").
		Scan(&rows).Error
	return rows, err
}

// RoomHistory lists every stay of a room, newest first, for its occupant,
// its manager or an admin.
func (s *Service) RoomHistory(ctx context.Context, p authz.Principal, roomID uint) ([]domain.Stay, error) {
	tx := s.conn(ctx)
	if err := authz.Occupant(roomID).Check(tx, p); err != nil {
		return nil, err
	}
	stays := []domain.Stay{}
	err := tx.Where("habitacion_id = ?", roomID).Order("fecha_entrada DESC, id DESC").Find(&stays).Error
	return stays, err
}
