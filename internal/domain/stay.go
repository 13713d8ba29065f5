package domain

import "time"

// Stay states. Left and kicked are terminal.
const (
	StayActive = "active"
	StayLeft   = "left"
	StayKicked = "kicked"
)

// Stay Model, one tenancy of a user in a room
type Stay struct {
	ID        uint       `gorm:"primaryKey" json:"id"`                                     // Primary key
	UserID    uint       `gorm:"column:usuario_id;not null;index" json:"usuario_id"`       // Tenant
	User      *User      `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`  // Tenant relation
	RoomID    uint       `gorm:"column:habitacion_id;not null;index" json:"habitacion_id"` // Occupied room
	Room      *Room      `gorm:"foreignKey:RoomID;constraint:OnDelete:RESTRICT" json:"-"`  // Room relation
	EnteredAt time.Time  `gorm:"column:fecha_entrada;not null" json:"fecha_entrada"`       // Move-in time
	LeftAt    *time.Time `gorm:"column:fecha_salida" json:"fecha_salida"`                  // Null while active
	Status    string     `gorm:"column:estado;size:10;not null" json:"estado"`             // active, left or kicked
	CreatedAt time.Time  `json:"created_at"`                                               // Creation time
	UpdatedAt time.Time  `json:"updated_at"`                                               // Last update
}

// TableName maps Stay to the usuario_habitacion table
func (Stay) TableName() string { return "usuario_habitacion" }

// Open reports whether the stay has not been closed yet
func (s Stay) Open() bool { return s.LeftAt == nil }
