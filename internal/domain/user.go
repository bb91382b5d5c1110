package domain

// User is an account that can own projects, join them and be assigned tasks.
type User struct {
	Username string `json:"username"`
	// PasswordHash is the bcrypt hash of the password. The legacy documents
	// call this field "password"; plaintext is never stored.
	PasswordHash string  `json:"password"`
	Email        *string `json:"email"`
	IsActive     bool    `json:"is_active"`
	IsAdmin      bool    `json:"is_admin"`
}
