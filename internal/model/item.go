package model

import "time"

// Item is a named inventory entry with its current quantity.
type Item struct {
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}
