package rpc

import (
	"time"

	"github.com/mmynk/visitlog/internal/models"
)

type RegisterRequest struct {
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Phone    *string `json:"phone,omitempty"`
	Password string  `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse answers Register and Login. Token is a signed bearer token.
type AuthResponse struct {
	User  models.PublicUser `json:"user"`
	Token string            `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User models.PublicUser `json:"user"`
}

type ListPropertiesRequest struct{}

type ListPropertiesResponse struct {
	Properties []models.Property `json:"properties"`
}

type CreatePropertyRequest struct {
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Description *string `json:"description,omitempty"`
}

type CreatePropertyResponse struct {
	Property models.Property `json:"property"`
}

type ListVisitsRequest struct{}

type ListVisitsByPropertyRequest struct {
	PropertyID string `json:"property_id"`
}

// ListVisitsResponse answers ListVisits and ListVisitsByProperty, newest first.
type ListVisitsResponse struct {
	Visits []models.Visit `json:"visits"`
}

type CreateVisitRequest struct {
	PropertyID   string    `json:"property_id"`
	VisitDate    time.Time `json:"visit_date"`
	NeedsParking bool      `json:"needs_parking"`
	Reason       string    `json:"reason"`
}

type CreateVisitResponse struct {
	Visit models.Visit `json:"visit"`
}
