package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semreg/graph"
	"github.com/c360studio/semreg/ontology"
	"github.com/c360studio/semreg/security"
)

// addLiveVertex writes a data vertex outside the catalog, the way
// ingest pipelines do, so delete-safety checks have something to find.
func addLiveVertex(t *testing.T, env *testEnv, id string, vis security.Visibility, props map[string]any) {
	t.Helper()
	mut := env.store.PrepareVertex(id, vis)
	for name, value := range props {
		mut.SetProperty(name, value, vis)
	}
	_, err := mut.Save(context.Background(), security.AllAuthorizations())
	require.NoError(t, err)
}

func TestDeleteConcept(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes an unreferenced concept", func(t *testing.T) {
		env := newTestEnv(t)
		seedConcepts(t, env, "person")

		require.NoError(t, env.repo.DeleteConcept(ctx, "person", env.adminUser()))

		gone, err := env.repo.ConceptByName(ctx, "person")
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("children block the delete", func(t *testing.T) {
		env := newTestEnv(t)
		seedConcepts(t, env, "vehicle")
		_, err := env.repo.GetOrCreateConcept(ctx, "vehicle", "car", "", security.SystemUser)
		require.NoError(t, err)

		err = env.repo.DeleteConcept(ctx, "vehicle", env.adminUser())
		assert.True(t, ontology.IsDeleteBlocked(err))
	})

	t.Run("relationship references block the delete", func(t *testing.T) {
		env := newTestEnv(t)
		seedConcepts(t, env, "person", "vehicle")
		_, err := env.repo.GetOrCreateRelationship(ctx, "", "owns", "Owns", []string{"person"}, []string{"vehicle"}, security.SystemUser)
		require.NoError(t, err)

		err = env.repo.DeleteConcept(ctx, "person", env.adminUser())
		assert.True(t, ontology.IsDeleteBlocked(err))
	})

	t.Run("live data blocks the delete even in a sandbox", func(t *testing.T) {
		env := newTestEnv(t)
		seedConcepts(t, env, "person")
		addLiveVertex(t, env, "data-1", security.ForWorkspace(wsTeamA), map[string]any{
			graph.ConceptTypeProperty: "person",
		})

		err := env.repo.DeleteConcept(ctx, "person", env.adminUser())
		assert.True(t, ontology.IsDeleteBlocked(err))
	})

	t.Run("exclusive properties cascade, shared ones survive", func(t *testing.T) {
		env := newTestEnv(t)
		seedConcepts(t, env, "person", "organization")
		_, err := env.repo.AddPropertyTo(ctx, AddPropertyRequest{
			Name:     "pulseRate",
			DataType: ontology.PropertyTypeInteger,
			Concepts: []string{"person"},
		}, security.SystemUser)
		require.NoError(t, err)
		_, err = env.repo.AddPropertyTo(ctx, AddPropertyRequest{
			Name:     "displayLabel",
			DataType: ontology.PropertyTypeString,
			Concepts: []string{"person", "organization"},
		}, security.SystemUser)
		require.NoError(t, err)

		require.NoError(t, env.repo.DeleteConcept(ctx, "person", env.adminUser()))

		gone, err := env.repo.PropertyByName(ctx, "pulseRate")
		require.NoError(t, err)
		assert.Nil(t, gone)

		kept, err := env.repo.PropertyByName(ctx, "displayLabel")
		require.NoError(t, err)
		assert.NotNil(t, kept)
	})

	t.Run("requires the admin privilege", func(t *testing.T) {
		env := newTestEnv(t)
		seedConcepts(t, env, "person")
		err := env.repo.DeleteConcept(ctx, "person", env.publishUser())
		assert.True(t, ontology.IsAccess(err))
	})

	t.Run("unknown concept is ErrNotFound", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.repo.DeleteConcept(ctx, "ghost", env.adminUser())
		assert.ErrorIs(t, err, ontology.ErrNotFound)
	})
}

func TestDeleteRelationship(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *testEnv {
		t.Helper()
		env := newTestEnv(t)
		seedConcepts(t, env, "person", "vehicle")
		_, err := env.repo.GetOrCreateRelationship(ctx, "", "owns", "Owns", []string{"person"}, []string{"vehicle"}, security.SystemUser)
		require.NoError(t, err)
		return env
	}

	t.Run("deletes an unused relationship", func(t *testing.T) {
		env := setup(t)
		require.NoError(t, env.repo.DeleteRelationship(ctx, "owns", env.adminUser()))
		gone, err := env.repo.RelationshipByName(ctx, "owns")
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("child relationships block the delete", func(t *testing.T) {
		env := setup(t)
		_, err := env.repo.GetOrCreateRelationship(ctx, "owns", "leases", "Leases", []string{"person"}, []string{"vehicle"}, security.SystemUser)
		require.NoError(t, err)

		err = env.repo.DeleteRelationship(ctx, "owns", env.adminUser())
		assert.True(t, ontology.IsDeleteBlocked(err))
	})

	t.Run("live edges block the delete", func(t *testing.T) {
		env := setup(t)
		vis := security.ForWorkspace(wsTeamA)
		addLiveVertex(t, env, "data-1", vis, nil)
		addLiveVertex(t, env, "data-2", vis, nil)
		_, err := env.store.PrepareEdge("data-e-1", "data-1", "data-2", "owns", vis).Save(ctx, security.AllAuthorizations())
		require.NoError(t, err)

		err = env.repo.DeleteRelationship(ctx, "owns", env.adminUser())
		assert.True(t, ontology.IsDeleteBlocked(err))
	})
}

func TestDeleteProperty(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *testEnv {
		t.Helper()
		env := newTestEnv(t)
		seedConcepts(t, env, "person")
		_, err := env.repo.AddPropertyTo(ctx, AddPropertyRequest{
			Name:     "nickname",
			DataType: ontology.PropertyTypeString,
			Concepts: []string{"person"},
		}, security.SystemUser)
		require.NoError(t, err)
		return env
	}

	t.Run("deletes an unused property", func(t *testing.T) {
		env := setup(t)
		require.NoError(t, env.repo.DeleteProperty(ctx, "nickname", env.adminUser()))
		gone, err := env.repo.PropertyByName(ctx, "nickname")
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("live values block the delete", func(t *testing.T) {
		env := setup(t)
		addLiveVertex(t, env, "data-1", security.ForWorkspace(wsTeamA), map[string]any{
			"nickname": "Ace",
		})
		err := env.repo.DeleteProperty(ctx, "nickname", env.adminUser())
		assert.True(t, ontology.IsDeleteBlocked(err))
	})

	t.Run("deletes are public-only", func(t *testing.T) {
		env := setup(t)
		err := env.repo.checkDeletePrivileges(env.adminUser(), wsTeamA)
		assert.True(t, ontology.IsValidation(err))
	})
}
