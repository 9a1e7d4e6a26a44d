// Package dto holds request and response bodies of the HTTP API.
package dto

// ItemRequest is the body of inventory add and remove calls.
type ItemRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}
