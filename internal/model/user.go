package model

import (
	"time"

	"github.com/google/uuid"
)

const DefaultAvatarURL = "/default-avatar.png"

type User struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Name         string    `db:"name"`
	AvatarURL    *string   `db:"avatar_url"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Avatar returns the stored avatar reference or the default one.
func (u *User) Avatar() string {
	if u.AvatarURL == nil || *u.AvatarURL == "" {
		return DefaultAvatarURL
	}
	return *u.AvatarURL
}
