package domain

import "time"

// Account is a registered user of the directory.
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
	Name         string
	IsActive     bool
	CreatedAt    time.Time
}

// Profile is the phone number and metadata an Account registers about itself.
// SpamCount is denormalized and only ever incremented by spam reports.
type Profile struct {
	ID          int64
	AccountID   int64
	PhoneNumber string
	Email       *string
	SpamCount   int
}

// RegisteredProfile is a Profile joined with its owning account's display name.
type RegisteredProfile struct {
	Profile
	AccountName string
}

type RegisterRequest struct {
	Username    string  `json:"username"`
	Password    string  `json:"password"`
	PhoneNumber string  `json:"phone_number"`
	Name        string  `json:"name"`
	Email       *string `json:"email,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenSubject is what gets embedded into issued tokens.
type TokenSubject struct {
	AccountID   int64
	Username    string
	PhoneNumber string
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
