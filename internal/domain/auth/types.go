package auth

import "time"

// Config drives authentication behavior. Credentials come from
// configuration: PasswordHash (bcrypt) when set, otherwise Password.
type Config struct {
	Secret       string
	TokenTTL     time.Duration
	Username     string
	Password     string
	PasswordHash string
}

// LoginRequest captures login details.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse returns the signed token.
type LoginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Claims are extracted from the JWT token.
type Claims struct {
	Username  string
	ExpiresAt time.Time
}
