package model

import "time"

// UserID uniquely identifies a user across the system
type UserID string

// User represents a registered account
type User struct {
	ID           UserID
	Email        string
	Username     string
	PasswordHash string // bcrypt hash, never serialized into DTOs
	CreatedAt    time.Time
}

// Identity is the authenticated principal carried by a verified token.
// The realtime core treats it as opaque beyond equality and display.
type Identity struct {
	UserID UserID
	Email  string
}
