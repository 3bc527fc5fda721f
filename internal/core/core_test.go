package core

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/visitlog/internal/auth"
	"github.com/mmynk/visitlog/internal/models"
	"github.com/mmynk/visitlog/internal/storage"
	"github.com/mmynk/visitlog/internal/storage/memory"
	"github.com/mmynk/visitlog/internal/storage/sqlite"
)

func fastConfig() Config {
	return Config{Hasher: &auth.BcryptHasher{Cost: 4}}
}

func date(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCore_SessionFlow(t *testing.T) {
	ctx := context.Background()
	c := Open(memory.New(), fastConfig())

	res, err := c.Register(ctx, auth.RegisterParams{Email: "a@x.com", Name: "A", Secret: "pw"})
	require.NoError(t, err)

	current, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "a@x.com", current.Email)
	assert.Equal(t, res.User, *current)

	_, err = c.Register(ctx, auth.RegisterParams{Email: "a@x.com", Name: "B", Secret: "pw"})
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)

	require.NoError(t, c.Logout(ctx))
	_, err = c.ListProperties(ctx)
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)
	require.NoError(t, c.Logout(ctx))

	_, err = c.Login(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, err = c.Login(ctx, "nobody@x.com", "pw")
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	_, err = c.Login(ctx, "a@x.com", "pw")
	require.NoError(t, err)
}

func TestCore_OwnershipAndOrdering(t *testing.T) {
	ctx := context.Background()
	c := Open(memory.New(), fastConfig())

	_, err := c.Register(ctx, auth.RegisterParams{Email: "a@x.com", Name: "A", Secret: "pw"})
	require.NoError(t, err)

	p, err := c.CreateProperty(ctx, models.PropertyInput{Name: "Loft", Address: "1 Main St"})
	require.NoError(t, err)

	got, err := c.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	for _, d := range []string{"2024-01-01", "2024-03-01", "2024-02-01"} {
		_, err := c.CreateVisit(ctx, models.VisitInput{PropertyID: p.ID, VisitDate: date(d)})
		require.NoError(t, err)
	}

	visits, err := c.ListVisitsByProperty(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, visits, 3)
	assert.Equal(t, []time.Time{date("2024-03-01"), date("2024-02-01"), date("2024-01-01")},
		[]time.Time{visits[0].VisitDate, visits[1].VisitDate, visits[2].VisitDate})

	all, err := c.ListVisits(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	details, err := c.ListVisitDetails(ctx)
	require.NoError(t, err)
	require.Len(t, details, 3)
	assert.Equal(t, "Loft", details[0].Property.Name)

	_, err = c.Register(ctx, auth.RegisterParams{Email: "b@x.com", Name: "B", Secret: "pw"})
	require.NoError(t, err)

	props, err := c.ListProperties(ctx)
	require.NoError(t, err)
	assert.Empty(t, props)
	otherVisits, err := c.ListVisits(ctx)
	require.NoError(t, err)
	assert.Empty(t, otherVisits)
}

func TestCore_SessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "device.db")

	store, err := sqlite.New(dbPath)
	require.NoError(t, err)
	c := Open(store, fastConfig())
	res, err := c.Register(ctx, auth.RegisterParams{Email: "a@x.com", Name: "A", Secret: "pw"})
	require.NoError(t, err)
	_, err = c.CreateProperty(ctx, models.PropertyInput{Name: "Loft", Address: "1 Main St"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = sqlite.New(dbPath)
	require.NoError(t, err)
	defer store.Close()
	c = Open(store, fastConfig())

	current, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, res.User.ID, current.ID)

	props, err := c.ListProperties(ctx)
	require.NoError(t, err)
	assert.Len(t, props, 1)
}

func TestCore_KeyPrefixAndReset(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	prefix := "tenant-a/"
	c := Open(store, Config{Hasher: &auth.BcryptHasher{Cost: 4}, KeyPrefix: &prefix})

	_, err := c.Register(ctx, auth.RegisterParams{Email: "a@x.com", Name: "A", Secret: "pw"})
	require.NoError(t, err)

	_, err = store.Get(ctx, "tenant-a/users")
	require.NoError(t, err)
	_, err = store.Get(ctx, storage.DefaultKeyPrefix+"users")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, c.Reset(ctx))
	for _, k := range storage.NewKeys(prefix).All() {
		_, err := store.Get(ctx, k)
		assert.ErrorIs(t, err, storage.ErrNotFound, k)
	}

	current, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestCore_LenientPropertyLinks(t *testing.T) {
	ctx := context.Background()
	cfg := fastConfig()
	cfg.LenientPropertyLinks = true
	c := Open(memory.New(), cfg)

	_, err := c.Register(ctx, auth.RegisterParams{Email: "a@x.com", Name: "A", Secret: "pw"})
	require.NoError(t, err)

	_, err = c.CreateVisit(ctx, models.VisitInput{PropertyID: "orphan", VisitDate: date("2024-01-01")})
	assert.NoError(t, err)
}
