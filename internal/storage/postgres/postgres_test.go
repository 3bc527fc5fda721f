package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/visitlog/internal/storage"
)

type fakeRow struct {
	value []byte
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.value
	return nil
}

type fakePool struct {
	rows    map[string][]byte
	execErr error
	execs   []string
	closed  bool
}

func (p *fakePool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.execs = append(p.execs, sql)
	if p.execErr != nil {
		return pgconn.CommandTag{}, p.execErr
	}
	switch {
	case strings.HasPrefix(sql, "INSERT"):
		p.rows[args[0].(string)] = args[1].([]byte)
	case strings.HasPrefix(sql, "DELETE"):
		for _, k := range args[0].([]string) {
			delete(p.rows, k)
		}
	}
	return pgconn.CommandTag{}, nil
}

func (p *fakePool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	v, ok := p.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{value: v}
}

func (p *fakePool) Close() { p.closed = true }

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	fp := &fakePool{rows: map[string][]byte{}}
	s := &PostgresStore{pool: fp}

	_, err := s.Get(ctx, "users")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, "users", []byte("{}")))
	got, err := s.Get(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(got))

	require.NoError(t, s.Remove(ctx, "users"))
	_, err = s.Get(ctx, "users")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Remove(ctx))
	assert.Len(t, fp.execs, 2, "Remove with no keys must not hit the database")

	require.NoError(t, s.Close())
	assert.True(t, fp.closed)
}

func TestPostgresStore_WrapsErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")
	s := &PostgresStore{pool: &fakePool{rows: map[string][]byte{}, execErr: boom}}

	err := s.Set(ctx, "users", []byte("{}"))
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}
