package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mmynk/visitlog/internal/collection"
	"github.com/mmynk/visitlog/internal/models"
)

// VisitRepository is CRUD over the visits collection, scoped to the acting user.
// Listings are ordered by VisitDate, newest first; equal dates keep store order.
type VisitRepository struct {
	visits     *collection.Collection[models.Visit]
	properties *PropertyRepository
	users      UserResolver
	opts       options
}

// NewVisitRepository creates a visit repository. properties is used to check
// and join the property a visit references.
func NewVisitRepository(visits *collection.Collection[models.Visit], properties *PropertyRepository, users UserResolver, opts ...Option) *VisitRepository {
	return &VisitRepository{
		visits:     visits,
		properties: properties,
		users:      users,
		opts:       buildOptions(opts),
	}
}

// ListAll returns every visit of the acting user.
func (r *VisitRepository) ListAll(ctx context.Context) ([]models.Visit, error) {
	ownerID, err := r.users.ActingUserID(ctx)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, func(v models.Visit) bool { return v.OwnerID == ownerID })
}

// ListByProperty returns the acting user's visits to propertyID. The property
// itself is not looked up: an unknown ID simply matches nothing.
func (r *VisitRepository) ListByProperty(ctx context.Context, propertyID string) ([]models.Visit, error) {
	ownerID, err := r.users.ActingUserID(ctx)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, func(v models.Visit) bool {
		return v.OwnerID == ownerID && v.PropertyID == propertyID
	})
}

// ListDetailed returns ListAll joined with each visit's property.
func (r *VisitRepository) ListDetailed(ctx context.Context) ([]models.VisitDetail, error) {
	visits, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	properties, err := r.properties.List(ctx)
	if err != nil {
		return nil, err
	}
	return models.JoinVisits(visits, properties), nil
}

// Create stores a new visit owned by the acting user. PropertyID and
// VisitDate are required. Unless the repository was built with
// WithLenientPropertyLinks, PropertyID must name one of the user's properties.
func (r *VisitRepository) Create(ctx context.Context, in models.VisitInput) (models.Visit, error) {
	ownerID, err := r.users.ActingUserID(ctx)
	if err != nil {
		return models.Visit{}, err
	}

	ierr := &models.InputError{}
	if strings.TrimSpace(in.PropertyID) == "" {
		ierr.Add("property_id", "required")
	}
	if in.VisitDate.IsZero() {
		ierr.Add("visit_date", "required")
	}
	if ierr.HasErrors() {
		return models.Visit{}, ierr
	}

	if !r.opts.lenientLinks {
		if _, err := r.properties.owned(ctx, ownerID, in.PropertyID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.Visit{}, models.NewInputError("property_id", fmt.Sprintf("property %s not found", in.PropertyID))
			}
			return models.Visit{}, err
		}
	}

	visit := models.Visit{
		ID:           r.opts.newID(),
		PropertyID:   in.PropertyID,
		OwnerID:      ownerID,
		VisitDate:    in.VisitDate.UTC(),
		NeedsParking: in.NeedsParking,
		Reason:       in.Reason,
		CreatedAt:    r.opts.now().UTC(),
	}

	err = r.visits.Update(ctx, func(all map[string]models.Visit) error {
		all[visit.ID] = visit
		return nil
	})
	if err != nil {
		r.opts.logger.Error("Create visit failed", "user_id", ownerID, "property_id", in.PropertyID, "error", err)
		return models.Visit{}, err
	}

	r.opts.logger.Info("Visit created",
		"visit_id", visit.ID,
		"property_id", visit.PropertyID,
		"user_id", ownerID,
		"visit_date", visit.VisitDate,
	)
	return visit, nil
}

func (r *VisitRepository) list(ctx context.Context, pred func(models.Visit) bool) ([]models.Visit, error) {
	visits, err := r.visits.Filter(ctx, pred)
	if err != nil {
		return nil, err
	}
	sortByVisitDateDesc(visits)
	return visits, nil
}

// sortByVisitDateDesc orders visits newest first, keeping the relative order
// of visits with equal dates.
func sortByVisitDateDesc(visits []models.Visit) {
	slices.SortStableFunc(visits, func(a, b models.Visit) int {
		return b.VisitDate.Compare(a.VisitDate)
	})
}
