package security

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Privilege names checked by the registry.
const (
	PrivilegeAdmin           = "ADMIN"
	PrivilegeOntologyAdd     = "ONTOLOGY_ADD"
	PrivilegeOntologyPublish = "ONTOLOGY_PUBLISH"
)

// WorkspaceIDPrefix tags workspace identifiers so they are
// recognizable inside visibility labels.
const WorkspaceIDPrefix = "WORKSPACE_"

// NewWorkspaceID generates a workspace identifier.
func NewWorkspaceID() string {
	return WorkspaceIDPrefix + uuid.New().String()
}

// User identifies an acting user. The system user bypasses all
// privilege checks.
type User struct {
	ID       string
	Username string
	System   bool
}

// SystemUser is the internal actor used for bootstrap and metadata
// stamping.
var SystemUser = User{ID: "system", Username: "system", System: true}

// WorkspaceAccess enumerates access levels on a workspace.
type WorkspaceAccess string

const (
	WorkspaceAccessNone  WorkspaceAccess = "NONE"
	WorkspaceAccessRead  WorkspaceAccess = "READ"
	WorkspaceAccessWrite WorkspaceAccess = "WRITE"
)

// PrivilegeStore answers which privileges a user holds.
type PrivilegeStore interface {
	Has(user User, privilege string) bool
}

// WorkspaceStore answers a user's access level on a workspace.
type WorkspaceStore interface {
	Access(user User, workspaceID string) WorkspaceAccess
}

// MemoryPrivilegeStore is a map-backed PrivilegeStore, safe for
// concurrent use.
type MemoryPrivilegeStore struct {
	mu    sync.RWMutex
	users map[string]map[string]struct{}
}

// NewMemoryPrivilegeStore returns an empty privilege store.
func NewMemoryPrivilegeStore() *MemoryPrivilegeStore {
	return &MemoryPrivilegeStore{users: make(map[string]map[string]struct{})}
}

// Grant adds privileges for a user.
func (s *MemoryPrivilegeStore) Grant(userID string, privileges ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.users[userID]
	if !ok {
		set = make(map[string]struct{})
		s.users[userID] = set
	}
	for _, p := range privileges {
		set[p] = struct{}{}
	}
}

// Has implements PrivilegeStore.
func (s *MemoryPrivilegeStore) Has(user User, privilege string) bool {
	if user.System {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.users[user.ID]
	if !ok {
		return false
	}
	_, ok = set[privilege]
	return ok
}

// MemoryWorkspaceStore is a map-backed WorkspaceStore, safe for
// concurrent use.
type MemoryWorkspaceStore struct {
	mu     sync.RWMutex
	access map[string]map[string]WorkspaceAccess
}

// NewMemoryWorkspaceStore returns an empty workspace store.
func NewMemoryWorkspaceStore() *MemoryWorkspaceStore {
	return &MemoryWorkspaceStore{access: make(map[string]map[string]WorkspaceAccess)}
}

// SetAccess records a user's access level on a workspace.
func (s *MemoryWorkspaceStore) SetAccess(workspaceID, userID string, access WorkspaceAccess) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser, ok := s.access[workspaceID]
	if !ok {
		byUser = make(map[string]WorkspaceAccess)
		s.access[workspaceID] = byUser
	}
	byUser[userID] = access
}

// Access implements WorkspaceStore.
func (s *MemoryWorkspaceStore) Access(user User, workspaceID string) WorkspaceAccess {
	if user.System {
		return WorkspaceAccessWrite
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	byUser, ok := s.access[workspaceID]
	if !ok {
		return WorkspaceAccessNone
	}
	access, ok := byUser[user.ID]
	if !ok {
		return WorkspaceAccessNone
	}
	return access
}

// String implements fmt.Stringer for diagnostics.
func (u User) String() string {
	return fmt.Sprintf("%s (%s)", u.Username, u.ID)
}
