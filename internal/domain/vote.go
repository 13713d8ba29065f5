package domain

import "time"

// Score bounds for every rating scale
const (
	MinScore = 1
	MaxScore = 5
)

// Vote Model, one user rating a co-tenant within a piso
type Vote struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`                                                                                                                      // Primary key
	PropertyID         uint      `gorm:"column:piso_id;not null;uniqueIndex:ux_voto_usuario_clave,priority:1" json:"piso_id"`                                                       // Shared piso
	Property           *Property `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"-"`                                                                                // Piso relation
	VoterID            uint      `gorm:"column:votante_id;not null;uniqueIndex:ux_voto_usuario_clave,priority:2;check:chk_voto_distinto,votante_id <> votado_id" json:"votante_id"` // Rater
	Voter              *User     `gorm:"foreignKey:VoterID;constraint:OnDelete:CASCADE" json:"-"`                                                                                   // Rater relation
	VoteeID            uint      `gorm:"column:votado_id;not null;uniqueIndex:ux_voto_usuario_clave,priority:3;index" json:"votado_id"`                                             // Ratee
	Votee              *User     `gorm:"foreignKey:VoteeID;constraint:OnDelete:CASCADE" json:"-"`                                                                                   // Ratee relation
	Cleanliness        int       `gorm:"column:limpieza;not null;check:chk_voto_limpieza,limpieza BETWEEN 1 AND 5" json:"limpieza"`                                                 // 1..5
	Noise              int       `gorm:"column:ruido;not null;check:chk_voto_ruido,ruido BETWEEN 1 AND 5" json:"ruido"`                                                             // 1..5
	PaymentPunctuality int       `gorm:"column:puntualidad_pagos;not null;check:chk_voto_puntualidad,puntualidad_pagos BETWEEN 1 AND 5" json:"puntualidad_pagos"`                   // 1..5
	Changes            int       `gorm:"column:num_cambios;not null" json:"num_cambios"`                                                                                            // Updates since creation
	CreatedAt          time.Time `json:"created_at"`                                                                                                                                // Creation time
	UpdatedAt          time.Time `json:"updated_at"`                                                                                                                                // Last update
}

// TableName maps Vote to the voto_usuario table
func (Vote) TableName() string { return "voto_usuario" }
