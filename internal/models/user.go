package models

import "time"

// Account is a user identity record as the stores persist it.
type Account struct {
	ID                       string     `json:"_id"`
	FirstName                string     `json:"firstName"`
	LastName                 string     `json:"lastName"`
	Username                 string     `json:"username"`
	Email                    string     `json:"email"`
	PasswordHash             string     `json:"-"` // never serialize
	Verified                 bool       `json:"verified"`
	VerificationToken        *string    `json:"-"`
	VerificationTokenExpiry  *time.Time `json:"-"`
	ResetPasswordToken       *string    `json:"-"`
	ResetPasswordTokenExpiry *time.Time `json:"-"`
	CreatedAt                time.Time  `json:"createdAt"`
	UpdatedAt                *time.Time `json:"updatedAt,omitempty"`
}

// Snapshot strips the password hash and token fields.
func (a *Account) Snapshot() AccountSnapshot {
	return AccountSnapshot{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Username:  a.Username,
		Email:     a.Email,
		Verified:  a.Verified,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountSnapshot is the public view of an Account embedded in bearer tokens.
type AccountSnapshot struct {
	ID        string     `json:"_id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Verified  bool       `json:"verified"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// NewAccount holds the fields signup hands to a store's Create.
type NewAccount struct {
	FirstName               string
	LastName                string
	Username                string
	Email                   string
	PasswordHash            string
	VerificationToken       string
	VerificationTokenExpiry time.Time
}

// SignupRequest is the JSON body for POST /api/auth/signup.
type SignupRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest is the JSON body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`

	// ClientIP is filled by the transport, never from the body.
	ClientIP string `json:"-"`
}

// ResendVerificationRequest is the JSON body for PATCH /api/auth/resendVerificationEmail.
type ResendVerificationRequest struct {
	Email string `json:"email"`
}
