package registry

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/c360studio/semreg/config"
	"github.com/c360studio/semreg/graph/memgraph"
	"github.com/c360studio/semreg/security"
)

const (
	wsTeamA = "WORKSPACE_team-a"
	wsTeamB = "WORKSPACE_team-b"
)

type testEnv struct {
	repo       *Repository
	store      *memgraph.Store
	privileges *security.MemoryPrivilegeStore
	workspaces *security.MemoryWorkspaceStore
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memgraph.New(logger)
	privileges := security.NewMemoryPrivilegeStore()
	workspaces := security.NewMemoryWorkspaceStore()

	opts = append([]Option{
		WithLogger(logger),
		WithPrivileges(privileges),
		WithWorkspaces(workspaces),
	}, opts...)

	repo, err := NewRepository(context.Background(), store, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return &testEnv{repo: repo, store: store, privileges: privileges, workspaces: workspaces}
}

// sandboxUser returns a user with write access to the workspace and
// the add privilege, which is what ordinary sandbox work requires.
func (e *testEnv) sandboxUser(workspace string) security.User {
	u := security.User{ID: "u-sandbox", Username: "casey"}
	e.privileges.Grant(u.ID, security.PrivilegeOntologyAdd)
	e.workspaces.SetAccess(workspace, u.ID, security.WorkspaceAccessWrite)
	return u
}

func (e *testEnv) publishUser() security.User {
	u := security.User{ID: "u-publish", Username: "morgan"}
	e.privileges.Grant(u.ID, security.PrivilegeOntologyPublish)
	return u
}

func (e *testEnv) adminUser() security.User {
	u := security.User{ID: "u-admin", Username: "rowan"}
	e.privileges.Grant(u.ID, security.PrivilegeAdmin)
	return u
}

func testConfig(mutate func(*config.Config)) *config.Config {
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	return cfg
}
