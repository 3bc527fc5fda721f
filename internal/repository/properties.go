package repository

import (
	"context"
	"strings"

	"github.com/mmynk/visitlog/internal/collection"
	"github.com/mmynk/visitlog/internal/models"
)

// PropertyRepository is CRUD over the properties collection, scoped to the acting user.
type PropertyRepository struct {
	properties *collection.Collection[models.Property]
	users      UserResolver
	opts       options
}

// NewPropertyRepository creates a property repository.
func NewPropertyRepository(properties *collection.Collection[models.Property], users UserResolver, opts ...Option) *PropertyRepository {
	return &PropertyRepository{
		properties: properties,
		users:      users,
		opts:       buildOptions(opts),
	}
}

// List returns the acting user's properties in store order.
func (r *PropertyRepository) List(ctx context.Context) ([]models.Property, error) {
	ownerID, err := r.users.ActingUserID(ctx)
	if err != nil {
		return nil, err
	}
	return r.properties.Filter(ctx, func(p models.Property) bool {
		return p.OwnerID == ownerID
	})
}

// Get returns the acting user's property with id, or models.ErrNotFound.
// Another user's property is reported as not found.
func (r *PropertyRepository) Get(ctx context.Context, id string) (models.Property, error) {
	ownerID, err := r.users.ActingUserID(ctx)
	if err != nil {
		return models.Property{}, err
	}
	return r.owned(ctx, ownerID, id)
}

func (r *PropertyRepository) owned(ctx context.Context, ownerID, id string) (models.Property, error) {
	all, err := r.properties.LoadAll(ctx)
	if err != nil {
		return models.Property{}, err
	}
	p, ok := all[id]
	if !ok || p.OwnerID != ownerID {
		return models.Property{}, models.ErrNotFound
	}
	return p, nil
}

// Create stores a new property owned by the acting user.
// Name and address are required.
func (r *PropertyRepository) Create(ctx context.Context, in models.PropertyInput) (models.Property, error) {
	ownerID, err := r.users.ActingUserID(ctx)
	if err != nil {
		return models.Property{}, err
	}

	ierr := &models.InputError{}
	if strings.TrimSpace(in.Name) == "" {
		ierr.Add("name", "required")
	}
	if strings.TrimSpace(in.Address) == "" {
		ierr.Add("address", "required")
	}
	if ierr.HasErrors() {
		return models.Property{}, ierr
	}

	var description *string
	if in.Description != nil && *in.Description != "" {
		d := *in.Description
		description = &d
	}

	property := models.Property{
		ID:          r.opts.newID(),
		OwnerID:     ownerID,
		Name:        in.Name,
		Address:     in.Address,
		Description: description,
		CreatedAt:   r.opts.now().UTC(),
	}

	err = r.properties.Update(ctx, func(all map[string]models.Property) error {
		all[property.ID] = property
		return nil
	})
	if err != nil {
		r.opts.logger.Error("Create property failed", "user_id", ownerID, "error", err)
		return models.Property{}, err
	}

	r.opts.logger.Info("Property created", "property_id", property.ID, "user_id", ownerID)
	return property, nil
}
