package domain

import "time"

// Product is a catalog entry. CustomID is the human-facing unique key ("p1").
type Product struct {
	ID          int64     `json:"id"`
	CustomID    string    `json:"customId"`
	Name        string    `json:"nombre"`
	Description string    `json:"descripcion,omitempty"`
	Stock       int       `json:"stock"`
	Price       float64   `json:"precio"`
	Image       string    `json:"imagen,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
