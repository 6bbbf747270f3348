package models

import "time"

// Identity is the authenticated user as seen by the rest of the application.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type User struct {
	ID        string
	Email     string
	Password  string
	CreatedAt time.Time
}

func (u User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email}
}
