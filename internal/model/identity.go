package model

import "github.com/google/uuid"

// Identity is the resolved result of a session: either a user id or anonymous.
// The zero value is anonymous.
type Identity struct {
	UserID uuid.UUID
}

var Anonymous = Identity{}

func Authenticated(userID uuid.UUID) Identity {
	return Identity{UserID: userID}
}

func (i Identity) IsAnonymous() bool {
	return i.UserID == uuid.Nil
}
