package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{Validation("too short"), http.StatusBadRequest},
		{Auth("bad token"), http.StatusUnauthorized},
		{Conflict("taken"), http.StatusConflict},
		{NotFound("gone"), http.StatusNotFound},
		{Consistency("desync", nil), http.StatusInternalServerError},
		{Transient("network", errors.New("boom")), http.StatusInternalServerError},
		{errors.New("untyped"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, Status(tc.err), tc.err.Error())
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := NotFound("post not found")
	wrapped := fmt.Errorf("while voting: %w", inner)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, &Error{Kind: KindNotFound}))
	assert.False(t, errors.Is(wrapped, &Error{Kind: KindAuth}))
}

func TestUntypedErrorsAreTransient(t *testing.T) {
	assert.Equal(t, KindTransient, KindOf(errors.New("connection reset")))
}
