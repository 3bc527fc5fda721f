package core

import (
	"context"

	"github.com/mmynk/visitlog/internal/auth"
	"github.com/mmynk/visitlog/internal/models"
)

var _ API = (*Core)(nil)

// API is the operation surface shared by the local Core and the remote client.
type API interface {
	auth.Authenticator

	ListProperties(ctx context.Context) ([]models.Property, error)
	CreateProperty(ctx context.Context, in models.PropertyInput) (models.Property, error)
	ListVisits(ctx context.Context) ([]models.Visit, error)
	ListVisitsByProperty(ctx context.Context, propertyID string) ([]models.Visit, error)
	CreateVisit(ctx context.Context, in models.VisitInput) (models.Visit, error)
}
