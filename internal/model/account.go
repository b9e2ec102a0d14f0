package model

import "time"

// AccountID uniquely identifies an account with the identity provider
type AccountID string

// Account is an identity that can authenticate a viewer session
type Account struct {
	ID           AccountID
	Email        string // login identity (immutable, stored lowercased)
	DisplayName  string
	PasswordHash string // bcrypt hash, empty for accounts issued by the accept-all provider
	CreatedAt    time.Time
}

// Credentials is the input of a login attempt
type Credentials struct {
	Email    string
	Password string
}

// Profile is the input of an account creation attempt
type Profile struct {
	DisplayName string
	Email       string
	Password    string
}
