package domain

import "time"

// Property Model, a piso
type Property struct {
	ID          uint      `gorm:"primaryKey" json:"id"`                                               // Primary key
	Address     string    `gorm:"column:direccion;size:255;not null" json:"direccion"`                // Street address
	City        string    `gorm:"column:ciudad;size:100;not null;index" json:"ciudad"`                // City
	PostalCode  *string   `gorm:"column:codigo_postal;size:10" json:"codigo_postal"`                  // Postal code
	Description *string   `gorm:"column:descripcion;type:text" json:"descripcion"`                    // Free text
	ManagerID   uint      `gorm:"column:manager_usuario_id;not null;index" json:"manager_usuario_id"` // Advertiser in charge
	Manager     *User     `gorm:"foreignKey:ManagerID;constraint:OnDelete:RESTRICT" json:"-"`         // Manager relation
	Active      bool      `gorm:"column:activo;not null" json:"activo"`                               // Soft-delete flag
	CreatedAt   time.Time `json:"created_at"`                                                         // Creation time
	UpdatedAt   time.Time `json:"updated_at"`                                                         // Last update
}

// TableName maps Property to the piso table
func (Property) TableName() string { return "piso" }

// PropertyPhoto Model
type PropertyPhoto struct {
	ID         uint      `gorm:"primaryKey" json:"id"`                                                                                              // Primary key
	PropertyID uint      `gorm:"column:piso_id;not null;uniqueIndex:ux_foto_piso_orden,priority:1" json:"piso_id"`                                  // Owning piso
	Property   *Property `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"-"`                                                        // Piso relation
	URL        string    `gorm:"column:url;size:500;not null" json:"url"`                                                                           // Image URL
	Order      int       `gorm:"column:orden;not null;uniqueIndex:ux_foto_piso_orden,priority:2;check:chk_foto_piso_orden,orden >= 0" json:"orden"` // Display rank
	CreatedAt  time.Time `json:"created_at"`                                                                                                        // Creation time
}

// TableName maps PropertyPhoto to the foto_piso table
func (PropertyPhoto) TableName() string { return "foto_piso" }
