package domain

import "time"

// User is a storefront account. PasswordHash is never serialized.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"nombre"`
	PasswordHash string    `json:"-"`
	Age          int       `json:"edad"`
	Admin        bool      `json:"administrador"`
	Title        string    `json:"trato,omitempty"`
	Image        *string   `json:"imagen,omitempty"`
	BirthPlace   string    `json:"lugarNacimiento,omitempty"`
	Blocked      bool      `json:"bloqueado"`
	CreatedAt    time.Time `json:"createdAt"`
}
