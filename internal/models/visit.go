package models

import "time"

// Visit is a visit to a property, immutable once created.
type Visit struct {
	// ID is the unique identifier for the visit (UUIDv7 format).
	ID string `json:"id"`

	// PropertyID references the visited Property.
	PropertyID string `json:"property_id"`

	// OwnerID is the ID of the User that scheduled the visit.
	OwnerID string `json:"user_id"`

	// VisitDate is when the visit takes place. Listings sort on it, newest first.
	VisitDate time.Time `json:"visit_date"`

	NeedsParking bool `json:"needs_parking"`

	// Reason defaults to the empty string.
	Reason string `json:"reason"`

	CreatedAt time.Time `json:"created_at"`
}

// VisitInput holds the caller-supplied fields for a new visit.
type VisitInput struct {
	PropertyID   string    `json:"property_id"`
	VisitDate    time.Time `json:"visit_date"`
	NeedsParking bool      `json:"needs_parking"`
	Reason       string    `json:"reason"`
}

// VisitDetail pairs a visit with the property it references.
// Property is nil when the referenced property is not visible to the owner.
type VisitDetail struct {
	Visit    Visit     `json:"visit"`
	Property *Property `json:"property"`
}

// JoinVisits attaches each visit's property from properties, keeping the
// order of visits.
func JoinVisits(visits []Visit, properties []Property) []VisitDetail {
	byID := make(map[string]*Property, len(properties))
	for i := range properties {
		byID[properties[i].ID] = &properties[i]
	}
	details := make([]VisitDetail, len(visits))
	for i, v := range visits {
		details[i] = VisitDetail{Visit: v, Property: byID[v.PropertyID]}
	}
	return details
}
