package models

import (
	"time"
)

type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Avatar       *string // File name relative to the avatar upload directory
	DateCreated  time.Time
	DateUpdated  time.Time
}

// AvatarName returns the stored avatar file name, or "" when none is set
func (u *User) AvatarName() string {
	if u.Avatar == nil {
		return ""
	}
	return *u.Avatar
}
