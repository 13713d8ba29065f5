// Package authz holds the role and ownership checks shared by the services.
//
// A Capability is evaluated once per request inside the caller's
// transaction. Resource scoped capabilities load their resource first, so a
// missing piso or room is reported as not found before any forbidden result.
// The loaded rows stay on the capability for the caller to reuse.
package authz

import (
	"net/http"

	"room_rental/internal/apperr"
	"room_rental/internal/db"
	"room_rental/internal/domain"

	"gorm.io/gorm"
)

// Principal is the authenticated caller.
type Principal struct {
	ID   uint
	Role string
}

func (p Principal) IsAdmin() bool { return p.Role == domain.RoleAdmin }

// PrincipalOf builds a Principal from a freshly loaded user row.
func PrincipalOf(u *domain.User) Principal {
	return Principal{ID: u.ID, Role: u.Role}
}

// Capability decides whether p may proceed.
type Capability interface {
	Check(tx *gorm.DB, p Principal) error
}

type adminCap struct{}

// Admin passes only for administrators.
func Admin() Capability { return adminCap{} }

func (adminCap) Check(_ *gorm.DB, p Principal) error {
	if p.IsAdmin() {
		return nil
	}
	return apperr.Forbidden(apperr.CodeForbidden)
}

type rolesCap []string

// Roles passes when the caller holds one of roles.
func Roles(roles ...string) Capability { return rolesCap(roles) }

func (r rolesCap) Check(_ *gorm.DB, p Principal) error {
	for _, role := range r {
		if p.Role == role {
			return nil
		}
	}
	return apperr.Forbidden(apperr.CodeForbidden)
}

// PropertyManagerCap passes for admins and for the manager of the piso.
type PropertyManagerCap struct {
	PropertyID uint
	DenyCode   string
	Lock       bool
	Property   domain.Property
}

func PropertyManager(pisoID uint) *PropertyManagerCap {
	return &PropertyManagerCap{PropertyID: pisoID, DenyCode: apperr.CodeForbidden}
}

// Deny sets the code returned when the caller is not the manager.
func (c *PropertyManagerCap) Deny(code string) *PropertyManagerCap {
	c.DenyCode = code
	return c
}

// ForUpdate locks the piso row while loading it.
func (c *PropertyManagerCap) ForUpdate() *PropertyManagerCap {
	c.Lock = true
	return c
}

func (c *PropertyManagerCap) Check(tx *gorm.DB, p Principal) error {
	if err := LoadProperty(tx, c.PropertyID, c.Lock, &c.Property); err != nil {
		return err
	}
	if p.IsAdmin() || c.Property.ManagerID == p.ID {
		return nil
	}
	return apperr.Forbidden(c.DenyCode)
}

// RoomManagerCap passes for admins and for the manager of the room's piso.
type RoomManagerCap struct {
	RoomID   uint
	DenyCode string
	Lock     bool
	Room     domain.Room
	Property domain.Property
}

func RoomManager(roomID uint) *RoomManagerCap {
	return &RoomManagerCap{RoomID: roomID, DenyCode: apperr.CodeForbidden}
}

func (c *RoomManagerCap) Deny(code string) *RoomManagerCap {
	c.DenyCode = code
	return c
}

// ForUpdate locks the room row while loading it.
func (c *RoomManagerCap) ForUpdate() *RoomManagerCap {
	c.Lock = true
	return c
}

func (c *RoomManagerCap) Check(tx *gorm.DB, p Principal) error {
	if err := LoadRoom(tx, c.RoomID, c.Lock, &c.Room); err != nil {
		return err
	}
	if err := LoadProperty(tx, c.Room.PropertyID, false, &c.Property); err != nil {
		return err
	}
	if p.IsAdmin() || c.Property.ManagerID == p.ID {
		return nil
	}
	return apperr.Forbidden(c.DenyCode)
}

// OccupantCap passes for admins, the room's manager, and the user holding
// the active stay on the room.
type OccupantCap struct {
	RoomManagerCap
}

func Occupant(roomID uint) *OccupantCap {
	return &OccupantCap{RoomManagerCap: RoomManagerCap{RoomID: roomID, DenyCode: apperr.CodeForbidden}}
}

func (c *OccupantCap) Check(tx *gorm.DB, p Principal) error {
	err := c.RoomManagerCap.Check(tx, p)
	if err == nil || !apperr.Is(err, c.DenyCode) {
		return err
	}
	var n int64
	if err := tx.Model(&domain.Stay{}).
		Where("habitacion_id = ? AND usuario_id = ? AND fecha_salida IS NULL", c.RoomID, p.ID).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return apperr.Forbidden(c.DenyCode)
}

// ResidentCap passes when the caller has an active stay in any room of the piso.
type ResidentCap struct {
	PropertyID uint
	Property   domain.Property
}

func Resident(pisoID uint) *ResidentCap { return &ResidentCap{PropertyID: pisoID} }

func (c *ResidentCap) Check(tx *gorm.DB, p Principal) error {
	if err := LoadProperty(tx, c.PropertyID, false, &c.Property); err != nil {
		return err
	}
	ok, err := IsResident(tx, p.ID, c.PropertyID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden(apperr.CodeForbiddenNotRoommate)
	}
	return nil
}

type anyOf []Capability

// AnyOf passes when one of caps passes. Otherwise a not-found result wins
// over the first forbidden one.
func AnyOf(caps ...Capability) Capability { return anyOf(caps) }

func (a anyOf) Check(tx *gorm.DB, p Principal) error {
	var first error
	for _, c := range a {
		err := c.Check(tx, p)
		if err == nil {
			return nil
		}
		if s := apperr.StatusOf(err); s == http.StatusNotFound || s == http.StatusInternalServerError {
			return err
		}
		if first == nil {
			first = err
		}
	}
	if first == nil {
		return apperr.Forbidden(apperr.CodeForbidden)
	}
	return first
}

// IsResident reports whether user has an active stay in a room of the piso.
func IsResident(tx *gorm.DB, userID, pisoID uint) (bool, error) {
	var n int64
	err := tx.Table("usuario_habitacion AS uh").
		Joins("JOIN habitacion h ON h.id = uh.habitacion_id").
		Where("uh.usuario_id = ? AND h.piso_id = ? AND uh.fecha_salida IS NULL", userID, pisoID).
		Count(&n).Error
	return n > 0, err
}

// LoadProperty reads a piso, mapping a missing row to PISO_NOT_FOUND.
func LoadProperty(tx *gorm.DB, id uint, lock bool, dst *domain.Property) error {
	q := tx
	if lock {
		q = db.ForUpdate(q)
	}
	if err := q.First(dst, id).Error; err != nil {
		if db.IsNotFound(err) {
			return apperr.NotFound(apperr.CodePisoNotFound)
		}
		return err
	}
	return nil
}

// LoadRoom reads a room, mapping a missing row to HABITACION_NOT_FOUND.
func LoadRoom(tx *gorm.DB, id uint, lock bool, dst *domain.Room) error {
	q := tx
	if lock {
		q = db.ForUpdate(q)
	}
	if err := q.First(dst, id).Error; err != nil {
		if db.IsNotFound(err) {
			return apperr.NotFound(apperr.CodeHabitacionNotFound)
		}
		return err
	}
	return nil
}
