package resource

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	dnsErr := &net.DNSError{Err: "no such host", Name: "api.local", IsNotFound: true}
	cases := []struct {
		name string
		err  error
		kind Kind
	}{
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), NetworkFailure},
		{"canceled", context.Canceled, NetworkFailure},
		{"net error", dnsErr, NetworkFailure},
		{"not found sentinel", fmt.Errorf("property P9: %w", ErrNotFound), NotFoundFailure},
		{"validation sentinel", fmt.Errorf("price: %w", ErrValidation), ValidationFailure},
		{"network sentinel", ErrNetwork, NetworkFailure},
		{"plain", errors.New("weird"), UnknownFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := Normalize(tc.err)
			if assert.NotNil(t, f) {
				assert.Equal(t, tc.kind, f.Kind)
				assert.NotEmpty(t, f.Error())
			}
		})
	}
	assert.Nil(t, Normalize(nil))
}

func TestNormalizeKeepsWrappedFailure(t *testing.T) {
	orig := Fail(NotFoundFailure, "property P1 not found", nil)
	got := Normalize(fmt.Errorf("load: %w", orig))
	assert.Same(t, orig, got)
}

func TestFailureMatchesSentinels(t *testing.T) {
	f := Fail(ValidationFailure, "bad", nil)
	assert.ErrorIs(t, f, ErrValidation)
	assert.NotErrorIs(t, f, ErrNotFound)
	assert.NotErrorIs(t, f, ErrNetwork)

	inner := errors.New("socket closed")
	n := Fail(NetworkFailure, "", inner)
	assert.ErrorIs(t, n, inner)
	assert.Equal(t, "socket closed", n.Error())
	assert.Equal(t, "not_found failure", (&Failure{Kind: NotFoundFailure}).Error())
}

func TestStatusAndKindStrings(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "resolved", Resolved.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "network", NetworkFailure.String())
	assert.Equal(t, "validation", ValidationFailure.String())
	assert.Equal(t, "not_found", NotFoundFailure.String())
	assert.Equal(t, "unknown", UnknownFailure.String())
}
