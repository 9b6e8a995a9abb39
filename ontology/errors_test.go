package ontology

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   func(error) bool
	}{
		{name: "validation", err: NewValidationError("car", "missing parent"), is: IsValidation},
		{name: "consistency", err: &ConsistencyError{Entity: "car"}, is: IsConsistency},
		{name: "access", err: &AccessError{User: "casey", Required: "ONTOLOGY_ADD"}, is: IsAccess},
		{name: "delete blocked", err: &DeleteBlockedError{Entity: "car", Reason: "has children"}, is: IsDeleteBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.is(tt.err))
			assert.True(t, tt.is(fmt.Errorf("outer: %w", tt.err)))
			assert.False(t, tt.is(errors.New("plain")))
			assert.False(t, tt.is(nil))
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	assert.Equal(t, "car: missing parent", NewValidationError("car", "missing %s", "parent").Error())
	assert.Equal(t, "bare message", NewValidationError("", "bare message").Error())
}

func TestConsistencyErrorMessage(t *testing.T) {
	err := &ConsistencyError{
		Entity:    "car",
		Conflicts: []string{"vehicle", "machine"},
		Message:   "element has more than one parent",
	}
	assert.Equal(t, "car: element has more than one parent (conflicting: vehicle, machine)", err.Error())
}

func TestAccessErrorMessage(t *testing.T) {
	err := &AccessError{User: "casey", Namespace: "WORKSPACE_team-a", Required: "workspace write access"}
	assert.Equal(t, "user casey lacks workspace write access in workspace WORKSPACE_team-a", err.Error())

	public := &AccessError{User: "casey", Required: "ONTOLOGY_PUBLISH"}
	assert.Equal(t, "user casey lacks ONTOLOGY_PUBLISH", public.Error())
}

func TestWrapStore(t *testing.T) {
	assert.NoError(t, WrapStore(nil, "load concepts", "", ""))

	cause := errors.New("connection reset")
	err := WrapStore(cause, "load concepts", "car", "WORKSPACE_team-a")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "load concepts", se.Op)
	assert.Contains(t, err.Error(), `"car"`)
	assert.Contains(t, err.Error(), "WORKSPACE_team-a")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestErrNotFoundWrapping(t *testing.T) {
	err := fmt.Errorf("concept %q: %w", "ghost", ErrNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}
