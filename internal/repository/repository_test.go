package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/visitlog/internal/collection"
	"github.com/mmynk/visitlog/internal/models"
	"github.com/mmynk/visitlog/internal/storage"
	"github.com/mmynk/visitlog/internal/storage/memory"
)

// actingUser resolves to a fixed user ID; the empty string means logged out.
type actingUser struct{ id string }

func (u *actingUser) ActingUserID(context.Context) (string, error) {
	if u.id == "" {
		return "", models.ErrNotAuthenticated
	}
	return u.id, nil
}

type fixture struct {
	store      *memory.Store
	user       *actingUser
	properties *PropertyRepository
	visits     *VisitRepository
}

var keys = storage.NewKeys("")

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := memory.New()
	user := &actingUser{id: "user-1"}

	n := 0
	opts = append([]Option{
		WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%04d", n) }),
		WithClock(func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }),
	}, opts...)

	props := NewPropertyRepository(collection.New[models.Property](store, keys.Properties), user, opts...)
	visits := NewVisitRepository(collection.New[models.Visit](store, keys.Visits), props, user, opts...)
	return &fixture{store: store, user: user, properties: props, visits: visits}
}

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestProperties(t *testing.T) {
	ctx := context.Background()

	t.Run("create then list under same session", func(t *testing.T) {
		f := newFixture(t)
		desc := "two bedrooms"
		created, err := f.properties.Create(ctx, models.PropertyInput{Name: "Loft", Address: "1 Main St", Description: &desc})
		require.NoError(t, err)
		assert.Equal(t, "user-1", created.OwnerID)
		assert.NotEmpty(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())

		list, err := f.properties.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Loft", list[0].Name)
		assert.Equal(t, "1 Main St", list[0].Address)
		assert.Equal(t, desc, *list[0].Description)
	})

	t.Run("other user sees nothing", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.properties.Create(ctx, models.PropertyInput{Name: "Loft", Address: "1 Main St"})
		require.NoError(t, err)

		f.user.id = "user-2"
		list, err := f.properties.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("requires session", func(t *testing.T) {
		f := newFixture(t)
		f.user.id = ""

		_, err := f.properties.List(ctx)
		assert.ErrorIs(t, err, models.ErrNotAuthenticated)
		_, err = f.properties.Create(ctx, models.PropertyInput{Name: "Loft", Address: "1 Main St"})
		assert.ErrorIs(t, err, models.ErrNotAuthenticated)
	})

	t.Run("blank name or address is invalid", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.properties.Create(ctx, models.PropertyInput{Name: "  ", Address: ""})
		require.ErrorIs(t, err, models.ErrInvalidInput)

		list, err := f.properties.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("empty description is stored as absent", func(t *testing.T) {
		f := newFixture(t)
		empty := ""
		p, err := f.properties.Create(ctx, models.PropertyInput{Name: "Loft", Address: "1 Main St", Description: &empty})
		require.NoError(t, err)
		assert.Nil(t, p.Description)
	})

	t.Run("get is owner scoped", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.properties.Create(ctx, models.PropertyInput{Name: "Loft", Address: "1 Main St"})
		require.NoError(t, err)

		got, err := f.properties.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p, got)

		f.user.id = "user-2"
		_, err = f.properties.Get(ctx, p.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("corrupt blob surfaces instead of empty list", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.Set(ctx, keys.Properties, []byte("[]x")))
		_, err := f.properties.List(ctx)
		assert.ErrorIs(t, err, models.ErrCorruptStore)
	})
}

func TestVisits(t *testing.T) {
	ctx := context.Background()

	t.Run("listed newest first", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.properties.Create(ctx, models.PropertyInput{Name: "Loft", Address: "1 Main St"})
		require.NoError(t, err)

		for _, d := range []string{"2024-01-01", "2024-03-01", "2024-02-01"} {
			_, err := f.visits.Create(ctx, models.VisitInput{PropertyID: p.ID, VisitDate: day(d)})
			require.NoError(t, err)
		}

		byProperty, err := f.visits.ListByProperty(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, byProperty, 3)
		assert.Equal(t, day("2024-03-01"), byProperty[0].VisitDate)
		assert.Equal(t, day("2024-02-01"), byProperty[1].VisitDate)
		assert.Equal(t, day("2024-01-01"), byProperty[2].VisitDate)

		all, err := f.visits.ListAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, byProperty, all)
	})

	t.Run("equal dates keep store order", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.properties.Create(ctx, models.PropertyInput{Name: "Loft", Address: "1 Main St"})
		require.NoError(t, err)

		var ids []string
		for _, reason := range []string{"first", "second", "third"} {
			v, err := f.visits.Create(ctx, models.VisitInput{PropertyID: p.ID, VisitDate: day("2024-05-05"), Reason: reason})
			require.NoError(t, err)
			ids = append(ids, v.ID)
		}

		all, err := f.visits.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		for i := range ids {
			assert.Equal(t, ids[i], all[i].ID)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.properties.Create(ctx, models.PropertyInput{Name: "Loft", Address: "1 Main St"})
		require.NoError(t, err)

		v, err := f.visits.Create(ctx, models.VisitInput{PropertyID: p.ID, VisitDate: day("2024-01-01")})
		require.NoError(t, err)
		assert.False(t, v.NeedsParking)
		assert.Equal(t, "", v.Reason)
		assert.Equal(t, "user-1", v.OwnerID)
	})

	t.Run("scoped by owner and property", func(t *testing.T) {
		f := newFixture(t)
		p1, err := f.properties.Create(ctx, models.PropertyInput{Name: "Loft", Address: "1 Main St"})
		require.NoError(t, err)
		p2, err := f.properties.Create(ctx, models.PropertyInput{Name: "Barn", Address: "2 Farm Rd"})
		require.NoError(t, err)

		_, err = f.visits.Create(ctx, models.VisitInput{PropertyID: p1.ID, VisitDate: day("2024-01-01")})
		require.NoError(t, err)
		_, err = f.visits.Create(ctx, models.VisitInput{PropertyID: p2.ID, VisitDate: day("2024-01-02")})
		require.NoError(t, err)

		onlyP1, err := f.visits.ListByProperty(ctx, p1.ID)
		require.NoError(t, err)
		require.Len(t, onlyP1, 1)
		assert.Equal(t, p1.ID, onlyP1[0].PropertyID)

		unknown, err := f.visits.ListByProperty(ctx, "no-such-property")
		require.NoError(t, err)
		assert.Empty(t, unknown)

		f.user.id = "user-2"
		other, err := f.visits.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, other)
	})

	t.Run("required fields", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.visits.Create(ctx, models.VisitInput{})
		require.ErrorIs(t, err, models.ErrInvalidInput)

		var ierr *models.InputError
		require.ErrorAs(t, err, &ierr)
		assert.Contains(t, ierr.Fields, "property_id")
		assert.Contains(t, ierr.Fields, "visit_date")
	})

	t.Run("requires session", func(t *testing.T) {
		f := newFixture(t)
		f.user.id = ""
		_, err := f.visits.ListAll(ctx)
		assert.ErrorIs(t, err, models.ErrNotAuthenticated)
		_, err = f.visits.ListByProperty(ctx, "p")
		assert.ErrorIs(t, err, models.ErrNotAuthenticated)
		_, err = f.visits.Create(ctx, models.VisitInput{PropertyID: "p", VisitDate: day("2024-01-01")})
		assert.ErrorIs(t, err, models.ErrNotAuthenticated)
	})
}

func TestVisits_PropertyLinks(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown property rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.visits.Create(ctx, models.VisitInput{PropertyID: "ghost", VisitDate: day("2024-01-01")})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("another user's property rejected", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.properties.Create(ctx, models.PropertyInput{Name: "Loft", Address: "1 Main St"})
		require.NoError(t, err)

		f.user.id = "user-2"
		_, err = f.visits.Create(ctx, models.VisitInput{PropertyID: p.ID, VisitDate: day("2024-01-01")})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("lenient links accept any property id", func(t *testing.T) {
		f := newFixture(t, WithLenientPropertyLinks())
		v, err := f.visits.Create(ctx, models.VisitInput{PropertyID: "ghost", VisitDate: day("2024-01-01")})
		require.NoError(t, err)

		got, err := f.visits.ListByProperty(ctx, "ghost")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, v.ID, got[0].ID)
	})
}

func TestVisits_ListDetailed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithLenientPropertyLinks())

	p, err := f.properties.Create(ctx, models.PropertyInput{Name: "Loft", Address: "1 Main St"})
	require.NoError(t, err)
	_, err = f.visits.Create(ctx, models.VisitInput{PropertyID: p.ID, VisitDate: day("2024-01-01"), NeedsParking: true})
	require.NoError(t, err)
	_, err = f.visits.Create(ctx, models.VisitInput{PropertyID: "ghost", VisitDate: day("2024-02-01")})
	require.NoError(t, err)

	details, err := f.visits.ListDetailed(ctx)
	require.NoError(t, err)
	require.Len(t, details, 2)

	assert.Equal(t, "ghost", details[0].Visit.PropertyID)
	assert.Nil(t, details[0].Property)

	require.NotNil(t, details[1].Property)
	assert.Equal(t, "Loft", details[1].Property.Name)
	assert.True(t, details[1].Visit.NeedsParking)
}
