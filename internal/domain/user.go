package domain

import "time"

// User roles
const (
	RoleAdmin      = "admin"      // Full access
	RoleAdvertiser = "advertiser" // Manages pisos and their rooms
	RoleUser       = "user"       // Plain tenant
)

// ValidRole reports whether r is one of the known roles
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleAdvertiser || r == RoleUser
}

// User Model
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`                                       // Primary key
	Name         string    `gorm:"column:nombre;size:100;not null" json:"nombre"`              // First name
	LastName     *string   `gorm:"column:apellidos;size:150" json:"apellidos"`                 // Last names
	Email        string    `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`    // Stored lowercased
	PasswordHash string    `gorm:"column:password_hash;size:255;not null" json:"-"`            // Bcrypt hash
	Role         string    `gorm:"column:rol;size:20;not null;index" json:"rol"`               // admin, advertiser or user
	Phone        *string   `gorm:"column:telefono;size:30" json:"telefono"`                    // Contact phone
	AvatarURL    *string   `gorm:"column:foto_perfil_url;size:500" json:"foto_perfil_url"`     // Profile picture
	Active       bool      `gorm:"column:activo;not null" json:"activo"`                       // Soft-delete flag
	TokenVersion int       `gorm:"column:token_version;not null" json:"-"`                     // Bumped to revoke issued tokens
	RegisteredAt time.Time `gorm:"column:fecha_registro;autoCreateTime" json:"fecha_registro"` // Registration time
}

// TableName maps User to the usuario table
func (User) TableName() string { return "usuario" }
