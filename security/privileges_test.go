package security

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkspaceID(t *testing.T) {
	id := NewWorkspaceID()
	require.True(t, strings.HasPrefix(id, WorkspaceIDPrefix))

	_, err := uuid.Parse(strings.TrimPrefix(id, WorkspaceIDPrefix))
	assert.NoError(t, err)

	assert.NotEqual(t, id, NewWorkspaceID())
}

func TestMemoryPrivilegeStore(t *testing.T) {
	store := NewMemoryPrivilegeStore()
	casey := User{ID: "u1", Username: "casey"}

	assert.False(t, store.Has(casey, PrivilegeOntologyAdd))

	store.Grant(casey.ID, PrivilegeOntologyAdd, PrivilegeOntologyPublish)
	assert.True(t, store.Has(casey, PrivilegeOntologyAdd))
	assert.True(t, store.Has(casey, PrivilegeOntologyPublish))
	assert.False(t, store.Has(casey, PrivilegeAdmin))

	// The system user holds everything implicitly.
	assert.True(t, store.Has(SystemUser, PrivilegeAdmin))
}

func TestMemoryWorkspaceStore(t *testing.T) {
	store := NewMemoryWorkspaceStore()
	casey := User{ID: "u1", Username: "casey"}

	assert.Equal(t, WorkspaceAccessNone, store.Access(casey, "WORKSPACE_a"))

	store.SetAccess("WORKSPACE_a", casey.ID, WorkspaceAccessRead)
	assert.Equal(t, WorkspaceAccessRead, store.Access(casey, "WORKSPACE_a"))
	assert.Equal(t, WorkspaceAccessNone, store.Access(casey, "WORKSPACE_b"))

	store.SetAccess("WORKSPACE_a", casey.ID, WorkspaceAccessWrite)
	assert.Equal(t, WorkspaceAccessWrite, store.Access(casey, "WORKSPACE_a"))

	assert.Equal(t, WorkspaceAccessWrite, store.Access(SystemUser, "WORKSPACE_a"))
}
