package models

import "time"

// Property is a place tracked by its owner.
type Property struct {
	// ID is the unique identifier for the property (UUIDv7 format).
	ID string `json:"id"`

	// OwnerID is the ID of the User that created the property.
	OwnerID string `json:"user_id"`

	Name    string `json:"name"`
	Address string `json:"address"`

	// Description is optional; nil is stored as JSON null.
	Description *string `json:"description"`

	CreatedAt time.Time `json:"createdAt"`
}

// PropertyInput holds the caller-supplied fields for a new property.
type PropertyInput struct {
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Description *string `json:"description,omitempty"`
}
