package domain

import "time"

// Room Model, a habitacion inside a piso
type Room struct {
	ID           uint      `gorm:"primaryKey" json:"id"`                                                                                 // Primary key
	PropertyID   uint      `gorm:"column:piso_id;not null;index" json:"piso_id"`                                                         // Owning piso
	Property     *Property `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"-"`                                           // Piso relation
	Title        string    `gorm:"column:titulo;size:150;not null" json:"titulo"`                                                        // Listing title
	Description  *string   `gorm:"column:descripcion;type:text" json:"descripcion"`                                                      // Free text
	MonthlyPrice int       `gorm:"column:precio_mensual;not null;check:chk_habitacion_precio,precio_mensual >= 0" json:"precio_mensual"` // Whole euros
	Available    bool      `gorm:"column:disponible;not null" json:"disponible"`                                                         // Open for a new tenant
	Active       bool      `gorm:"column:activo;not null" json:"activo"`                                                                 // Soft-delete flag
	SizeM2       *float64  `gorm:"column:tamano_m2;check:chk_habitacion_tamano,tamano_m2 > 0" json:"tamano_m2"`                          // Surface
	Furnished    bool      `gorm:"column:amueblada;not null" json:"amueblada"`                                                           // Amenity
	Bathroom     bool      `gorm:"column:bano;not null" json:"bano"`                                                                     // Private bathroom
	Balcony      bool      `gorm:"column:balcon;not null" json:"balcon"`                                                                 // Amenity
	CreatedAt    time.Time `json:"created_at"`                                                                                           // Creation time
	UpdatedAt    time.Time `json:"updated_at"`                                                                                           // Last update
}

// TableName maps Room to the habitacion table
func (Room) TableName() string { return "habitacion" }

// RoomPhoto Model
type RoomPhoto struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                                                                                                          // Primary key
	RoomID    uint      `gorm:"column:habitacion_id;not null;uniqueIndex:ux_foto_habitacion_orden,priority:1" json:"habitacion_id"`                            // Owning room
	Room      *Room     `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"-"`                                                                        // Room relation
	URL       string    `gorm:"column:url;size:500;not null" json:"url"`                                                                                       // Image URL
	Order     int       `gorm:"column:orden;not null;uniqueIndex:ux_foto_habitacion_orden,priority:2;check:chk_foto_habitacion_orden,orden >= 0" json:"orden"` // Display rank
	CreatedAt time.Time `json:"created_at"`                                                                                                                    // Creation time
}

// TableName maps RoomPhoto to the foto_habitacion table
func (RoomPhoto) TableName() string { return "foto_habitacion" }
