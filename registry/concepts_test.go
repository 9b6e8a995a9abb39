package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semreg/config"
	"github.com/c360studio/semreg/ontology"
	"github.com/c360studio/semreg/security"
)

func TestGetOrCreateConcept(t *testing.T) {
	ctx := context.Background()

	t.Run("creates with implicit root parent", func(t *testing.T) {
		env := newTestEnv(t)
		concept, err := env.repo.GetOrCreateConcept(ctx, "", "person", "Person", security.SystemUser)
		require.NoError(t, err)
		assert.Equal(t, "person", concept.Name())
		assert.Equal(t, "Person", concept.DisplayName())
		assert.Equal(t, ontology.RootConceptName, concept.ParentConceptName())
		assert.Equal(t, ConceptID("person", ""), concept.ID())

		// The root was bootstrapped on the way.
		root, err := env.repo.RequireConceptByName(ctx, ontology.RootConceptName)
		require.NoError(t, err)
		assert.Equal(t, "", root.ParentConceptName())
	})

	t.Run("idempotent by name", func(t *testing.T) {
		env := newTestEnv(t)
		first, err := env.repo.GetOrCreateConcept(ctx, "", "person", "Person", security.SystemUser)
		require.NoError(t, err)

		// A repeat call with different attributes returns the
		// existing concept unchanged.
		again, err := env.repo.GetOrCreateConcept(ctx, "", "person", "Someone Else", security.SystemUser)
		require.NoError(t, err)
		assert.Equal(t, first.ID(), again.ID())
		assert.Equal(t, "Person", again.DisplayName())
	})

	t.Run("missing explicit parent fails", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.repo.GetOrCreateConcept(ctx, "nonexistent", "person", "Person", security.SystemUser)
		require.Error(t, err)
		assert.True(t, ontology.IsValidation(err))
	})

	t.Run("empty name derives a dynamic name", func(t *testing.T) {
		env := newTestEnv(t)
		concept, err := env.repo.GetOrCreateConcept(ctx, "", "", "Purchase Order", security.SystemUser)
		require.NoError(t, err)
		assert.Equal(t, GenerateDynamicName(ontology.KindConcept, "Purchase Order", ""), concept.Name())

		again, err := env.repo.GetOrCreateConcept(ctx, "", "", "Purchase Order", security.SystemUser)
		require.NoError(t, err)
		assert.Equal(t, concept.ID(), again.ID())
	})

	t.Run("no name and no display name fails", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.repo.GetOrCreateConcept(ctx, "", "", "", security.SystemUser)
		assert.True(t, ontology.IsValidation(err))
	})

	t.Run("requires privileges for ordinary users", func(t *testing.T) {
		env := newTestEnv(t)
		nobody := security.User{ID: "u-none", Username: "sam"}
		_, err := env.repo.GetOrCreateConcept(ctx, "", "person", "Person", nobody)
		assert.True(t, ontology.IsAccess(err))

		env.privileges.Grant(nobody.ID, security.PrivilegeOntologyPublish)
		_, err = env.repo.GetOrCreateConcept(ctx, "", "person", "Person", nobody)
		assert.NoError(t, err)
	})

	t.Run("sandbox creation needs workspace write access", func(t *testing.T) {
		env := newTestEnv(t)
		u := security.User{ID: "u-1", Username: "casey"}
		env.privileges.Grant(u.ID, security.PrivilegeOntologyAdd)

		_, err := env.repo.GetOrCreateConceptIn(ctx, wsTeamA, "", "vehicle", "Vehicle", u)
		assert.True(t, ontology.IsAccess(err))

		env.workspaces.SetAccess(wsTeamA, u.ID, security.WorkspaceAccessWrite)
		_, err = env.repo.GetOrCreateConceptIn(ctx, wsTeamA, "", "vehicle", "Vehicle", u)
		assert.NoError(t, err)
	})
}

func TestSandboxConceptVisibility(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.sandboxUser(wsTeamA)

	_, err := env.repo.GetOrCreateConceptIn(ctx, wsTeamA, "", "vehicle", "Vehicle", user)
	require.NoError(t, err)

	t.Run("visible in its own workspace", func(t *testing.T) {
		c, err := env.repo.ConceptByNameIn(ctx, "vehicle", wsTeamA)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, ontology.SandboxPrivate, c.SandboxStatus(wsTeamA))
	})

	t.Run("invisible publicly and in other workspaces", func(t *testing.T) {
		c, err := env.repo.ConceptByName(ctx, "vehicle")
		require.NoError(t, err)
		assert.Nil(t, c)

		c, err = env.repo.ConceptByNameIn(ctx, "vehicle", wsTeamB)
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("required lookup misses with ErrNotFound", func(t *testing.T) {
		_, err := env.repo.RequireConceptByName(ctx, "vehicle")
		assert.ErrorIs(t, err, ontology.ErrNotFound)
	})

	t.Run("sandbox sees public concepts too", func(t *testing.T) {
		_, err := env.repo.GetOrCreateConcept(ctx, "", "person", "Person", security.SystemUser)
		require.NoError(t, err)
		c, err := env.repo.ConceptByNameIn(ctx, "person", wsTeamA)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, ontology.SandboxPublic, c.SandboxStatus(wsTeamA))
	})
}

func TestConceptHierarchy(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	mustCreate := func(parent, name string) {
		t.Helper()
		_, err := env.repo.GetOrCreateConcept(ctx, parent, name, "", security.SystemUser)
		require.NoError(t, err)
	}
	mustCreate("", "asset")
	mustCreate("asset", "vehicle")
	mustCreate("vehicle", "car")
	mustCreate("vehicle", "truck")

	t.Run("ancestors nearest first", func(t *testing.T) {
		ancestors, err := env.repo.AncestorConcepts(ctx, "car")
		require.NoError(t, err)
		assert.Equal(t, []string{"vehicle", "asset", ontology.RootConceptName}, elementNames(ancestors))
	})

	t.Run("ancestors of root are empty", func(t *testing.T) {
		ancestors, err := env.repo.AncestorConcepts(ctx, ontology.RootConceptName)
		require.NoError(t, err)
		assert.Empty(t, ancestors)
	})

	t.Run("direct children", func(t *testing.T) {
		children, err := env.repo.ChildConcepts(ctx, "vehicle")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"car", "truck"}, elementNames(children))
	})

	t.Run("concept and all children, self first", func(t *testing.T) {
		names, err := env.repo.ConceptAndAllChildrenNames(ctx, "asset")
		require.NoError(t, err)
		require.NotEmpty(t, names)
		assert.Equal(t, "asset", names[0])
		assert.ElementsMatch(t, []string{"asset", "vehicle", "car", "truck"}, names)
	})

	t.Run("unknown concept is ErrNotFound", func(t *testing.T) {
		_, err := env.repo.AncestorConcepts(ctx, "ghost")
		assert.ErrorIs(t, err, ontology.ErrNotFound)
		_, err = env.repo.ChildConcepts(ctx, "ghost")
		assert.ErrorIs(t, err, ontology.ErrNotFound)
		_, err = env.repo.ConceptAndAllChildren(ctx, "ghost")
		assert.ErrorIs(t, err, ontology.ErrNotFound)
	})
}

func TestConceptByIntent(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, opts ...Option) *testEnv {
		t.Helper()
		env := newTestEnv(t, opts...)
		person, err := env.repo.GetOrCreateConcept(ctx, "", "person", "Person", security.SystemUser)
		require.NoError(t, err)
		require.NoError(t, person.AddIntent(ctx, "actor", security.SystemUser, security.AllAuthorizations()))
		return env
	}

	t.Run("single match resolves", func(t *testing.T) {
		env := setup(t)
		c, err := env.repo.ConceptByIntent(ctx, "actor")
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "person", c.Name())
	})

	t.Run("no match returns nil, required returns ErrNotFound", func(t *testing.T) {
		env := setup(t)
		c, err := env.repo.ConceptByIntent(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, c)
		_, err = env.repo.RequireConceptByIntent(ctx, "missing")
		assert.ErrorIs(t, err, ontology.ErrNotFound)
	})

	t.Run("ambiguous match is a consistency error", func(t *testing.T) {
		env := setup(t)
		org, err := env.repo.GetOrCreateConcept(ctx, "", "organization", "Organization", security.SystemUser)
		require.NoError(t, err)
		require.NoError(t, org.AddIntent(ctx, "actor", security.SystemUser, security.AllAuthorizations()))

		_, err = env.repo.ConceptByIntent(ctx, "actor")
		require.Error(t, err)
		assert.True(t, ontology.IsConsistency(err))
	})

	t.Run("configured override resolves ambiguity", func(t *testing.T) {
		env := setup(t, WithConfig(testConfig(func(cfg *config.Config) {
			cfg.Intents.Concepts = map[string]string{"actor": "organization"}
		})))
		org, err := env.repo.GetOrCreateConcept(ctx, "", "organization", "Organization", security.SystemUser)
		require.NoError(t, err)
		require.NoError(t, org.AddIntent(ctx, "actor", security.SystemUser, security.AllAuthorizations()))

		c, err := env.repo.ConceptByIntent(ctx, "actor")
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "organization", c.Name())
	})
}

func TestConceptIntentsUpdate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	concept, err := env.repo.GetOrCreateConcept(ctx, "", "person", "Person", security.SystemUser)
	require.NoError(t, err)
	auths := security.AllAuthorizations()

	require.NoError(t, concept.AddIntent(ctx, "actor", security.SystemUser, auths))
	require.NoError(t, concept.AddIntent(ctx, "party", security.SystemUser, auths))
	assert.Equal(t, []string{"actor", "party"}, concept.Intents())

	// Reconcile replaces the set.
	require.NoError(t, concept.UpdateIntents(ctx, []string{"party", "subject"}, security.SystemUser, auths))
	assert.Equal(t, []string{"party", "subject"}, concept.Intents())

	require.NoError(t, concept.RemoveIntent(ctx, "party", security.SystemUser, auths))
	assert.Equal(t, []string{"subject"}, concept.Intents())

	// A fresh snapshot observes the same state.
	reread, err := env.repo.RequireConceptByName(ctx, "person")
	require.NoError(t, err)
	assert.Equal(t, []string{"subject"}, reread.Intents())
}

func TestConceptByID(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	concept, err := env.repo.GetOrCreateConcept(ctx, "", "person", "Person", security.SystemUser)
	require.NoError(t, err)

	byID, err := env.repo.ConceptByID(ctx, concept.ID())
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "person", byID.Name())

	missing, err := env.repo.ConceptByID(ctx, "o_c_missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
