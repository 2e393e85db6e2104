package models

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Account is a configured identity allowed to sign in.
type Account struct {
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // never expose
	Role         Role   `json:"role"`
}
