package rpc

import (
	"encoding/json"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/visitlog/internal/auth"
	"github.com/mmynk/visitlog/internal/models"
)

// Error metadata headers. The reason names the exact sentinel so that
// errors sharing a Connect code stay distinguishable on the client.
const (
	reasonHeader = "Visitlog-Error-Reason"
	fieldsHeader = "Visitlog-Error-Fields"
)

type errorKind struct {
	reason   string
	code     connect.Code
	sentinel error
}

// errorKinds is checked in order; the first sentinel err matches wins.
var errorKinds = []errorKind{
	{"duplicate_email", connect.CodeAlreadyExists, models.ErrDuplicateEmail},
	{"user_not_found", connect.CodeNotFound, models.ErrUserNotFound},
	{"not_found", connect.CodeNotFound, models.ErrNotFound},
	{"invalid_credentials", connect.CodeUnauthenticated, models.ErrInvalidCredentials},
	{"not_authenticated", connect.CodeUnauthenticated, models.ErrNotAuthenticated},
	{"not_authenticated", connect.CodeUnauthenticated, auth.ErrMissingToken},
	{"not_authenticated", connect.CodeUnauthenticated, auth.ErrInvalidToken},
	{"invalid_input", connect.CodeInvalidArgument, models.ErrInvalidInput},
	{"corrupt_store", connect.CodeDataLoss, models.ErrCorruptStore},
	{"store_unavailable", connect.CodeUnavailable, models.ErrStoreUnavailable},
}

// ToConnectError converts a domain error into a *connect.Error carrying its
// reason. Unknown errors become CodeInternal without their message.
func ToConnectError(err error) error {
	if err == nil {
		return nil
	}
	var ce *connect.Error
	if errors.As(err, &ce) {
		return ce
	}

	for _, k := range errorKinds {
		if !errors.Is(err, k.sentinel) {
			continue
		}
		ce = connect.NewError(k.code, err)
		ce.Meta().Set(reasonHeader, k.reason)

		var ierr *models.InputError
		if errors.As(err, &ierr) && ierr.HasErrors() {
			if fields, jerr := json.Marshal(ierr.Fields); jerr == nil {
				ce.Meta().Set(fieldsHeader, string(fields))
			}
		}
		return ce
	}
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}

// FromConnectError converts an error returned by a Connect call back into
// the domain sentinel it was built from. Transport failures surface as
// models.ErrStoreUnavailable.
func FromConnectError(err error) error {
	if err == nil {
		return nil
	}
	var ce *connect.Error
	if !errors.As(err, &ce) {
		return fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
	}

	if reason := ce.Meta().Get(reasonHeader); reason != "" {
		for _, k := range errorKinds {
			if k.reason != reason {
				continue
			}
			if k.sentinel == models.ErrInvalidInput {
				return inputError(ce)
			}
			if k.sentinel == models.ErrCorruptStore || k.sentinel == models.ErrStoreUnavailable {
				return fmt.Errorf("%w: %s", k.sentinel, ce.Message())
			}
			// Reasons are unique up to the token errors, which share
			// not_authenticated with models.ErrNotAuthenticated listed first.
			return k.sentinel
		}
	}

	switch ce.Code() {
	case connect.CodeAlreadyExists:
		return models.ErrDuplicateEmail
	case connect.CodeNotFound:
		return models.ErrNotFound
	case connect.CodeUnauthenticated:
		return models.ErrNotAuthenticated
	case connect.CodeInvalidArgument:
		return inputError(ce)
	case connect.CodeDataLoss:
		return fmt.Errorf("%w: %w", models.ErrCorruptStore, ce)
	case connect.CodeUnavailable, connect.CodeDeadlineExceeded:
		return fmt.Errorf("%w: %w", models.ErrStoreUnavailable, ce)
	default:
		return err
	}
}

func inputError(ce *connect.Error) error {
	ierr := &models.InputError{}
	if raw := ce.Meta().Get(fieldsHeader); raw != "" {
		_ = json.Unmarshal([]byte(raw), &ierr.Fields)
	}
	if !ierr.HasErrors() {
		ierr.Add("request", ce.Message())
	}
	return ierr
}
