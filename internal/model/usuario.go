package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/schema"
)

// Usuario is a platform account. PasswordHash is nil for users that signed in
// through an external identity provider (GoogleID set).
type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre       string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash *string
	GoogleID     *string `gorm:"uniqueIndex"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Usuario) TableName(namer schema.Namer) string { return namer.TableName("usuarios") }
