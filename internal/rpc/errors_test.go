package rpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/visitlog/internal/auth"
	"github.com/mmynk/visitlog/internal/models"
)

func TestToConnectError_Codes(t *testing.T) {
	tests := []struct {
		err  error
		code connect.Code
	}{
		{models.ErrDuplicateEmail, connect.CodeAlreadyExists},
		{models.ErrUserNotFound, connect.CodeNotFound},
		{models.ErrNotFound, connect.CodeNotFound},
		{models.ErrInvalidCredentials, connect.CodeUnauthenticated},
		{models.ErrNotAuthenticated, connect.CodeUnauthenticated},
		{fmt.Errorf("%w: expired", auth.ErrInvalidToken), connect.CodeUnauthenticated},
		{models.NewInputError("name", "required"), connect.CodeInvalidArgument},
		{fmt.Errorf("%w: decode visits: %w", models.ErrCorruptStore, errors.New("bad json")), connect.CodeDataLoss},
		{fmt.Errorf("%w: read: %w", models.ErrStoreUnavailable, errors.New("disk")), connect.CodeUnavailable},
		{errors.New("boom"), connect.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.code, connect.CodeOf(ToConnectError(tt.err)))
		})
	}
}

func TestToConnectError_HidesInternalMessage(t *testing.T) {
	err := ToConnectError(errors.New("password column missing"))
	var ce *connect.Error
	require.ErrorAs(t, err, &ce)
	assert.NotContains(t, ce.Message(), "password")
}

func TestToConnectError_Nil(t *testing.T) {
	assert.NoError(t, ToConnectError(nil))
	assert.NoError(t, FromConnectError(nil))
}

func TestFromConnectError_RoundTrip(t *testing.T) {
	sentinels := []error{
		models.ErrDuplicateEmail,
		models.ErrUserNotFound,
		models.ErrNotFound,
		models.ErrInvalidCredentials,
		models.ErrNotAuthenticated,
		models.ErrInvalidInput,
		models.ErrCorruptStore,
		models.ErrStoreUnavailable,
	}
	for _, s := range sentinels {
		t.Run(s.Error(), func(t *testing.T) {
			got := FromConnectError(ToConnectError(s))
			assert.ErrorIs(t, got, s)
		})
	}

	t.Run("token errors become not authenticated", func(t *testing.T) {
		got := FromConnectError(ToConnectError(auth.ErrMissingToken))
		assert.ErrorIs(t, got, models.ErrNotAuthenticated)
	})
}

func TestFromConnectError_InputFields(t *testing.T) {
	in := &models.InputError{}
	in.Add("name", "required")
	in.Add("address", "required")

	got := FromConnectError(ToConnectError(in))

	var ierr *models.InputError
	require.ErrorAs(t, got, &ierr)
	assert.Equal(t, in.Fields, ierr.Fields)
}

func TestFromConnectError_CodeFallback(t *testing.T) {
	tests := []struct {
		code connect.Code
		want error
	}{
		{connect.CodeAlreadyExists, models.ErrDuplicateEmail},
		{connect.CodeNotFound, models.ErrNotFound},
		{connect.CodeUnauthenticated, models.ErrNotAuthenticated},
		{connect.CodeInvalidArgument, models.ErrInvalidInput},
		{connect.CodeDataLoss, models.ErrCorruptStore},
		{connect.CodeUnavailable, models.ErrStoreUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			got := FromConnectError(connect.NewError(tt.code, errors.New("from a proxy")))
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestFromConnectError_Transport(t *testing.T) {
	got := FromConnectError(context.DeadlineExceeded)
	assert.ErrorIs(t, got, models.ErrStoreUnavailable)
	assert.ErrorIs(t, got, context.DeadlineExceeded)
}

func TestJSONCodec(t *testing.T) {
	c := jsonCodec{}
	assert.Equal(t, "json", c.Name())

	b, err := c.Marshal(&ListVisitsByPropertyRequest{PropertyID: "p-1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"property_id":"p-1"}`, string(b))

	var req ListVisitsByPropertyRequest
	require.NoError(t, c.Unmarshal(b, &req))
	assert.Equal(t, "p-1", req.PropertyID)

	var empty ListPropertiesRequest
	assert.NoError(t, c.Unmarshal(nil, &empty))
	assert.Error(t, c.Unmarshal([]byte("{"), &req))
}
