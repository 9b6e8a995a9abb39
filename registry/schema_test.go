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

func TestSnapshotCaching(t *testing.T) {
	ctx := context.Background()

	t.Run("repeat reads are served from cache", func(t *testing.T) {
		env := newTestEnv(t)
		seedConcepts(t, env, "person")

		first, err := env.repo.Ontology(ctx)
		require.NoError(t, err)
		second, err := env.repo.Ontology(ctx)
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("public and sandbox snapshots are cached independently", func(t *testing.T) {
		env := newTestEnv(t)
		seedConcepts(t, env, "person")

		pub, err := env.repo.Ontology(ctx)
		require.NoError(t, err)
		sandbox, err := env.repo.OntologyIn(ctx, wsTeamA)
		require.NoError(t, err)
		assert.NotSame(t, pub, sandbox)

		again, err := env.repo.OntologyIn(ctx, wsTeamA)
		require.NoError(t, err)
		assert.Same(t, sandbox, again)
	})

	t.Run("a sandbox mutation leaves other snapshots cached", func(t *testing.T) {
		env := newTestEnv(t)
		seedConcepts(t, env, "person")

		pub, err := env.repo.Ontology(ctx)
		require.NoError(t, err)
		other, err := env.repo.OntologyIn(ctx, wsTeamB)
		require.NoError(t, err)
		own, err := env.repo.OntologyIn(ctx, wsTeamA)
		require.NoError(t, err)

		_, err = env.repo.GetOrCreateConceptIn(ctx, wsTeamA, "person", "drone", "Drone", security.SystemUser)
		require.NoError(t, err)

		pubAgain, err := env.repo.Ontology(ctx)
		require.NoError(t, err)
		assert.Same(t, pub, pubAgain)
		otherAgain, err := env.repo.OntologyIn(ctx, wsTeamB)
		require.NoError(t, err)
		assert.Same(t, other, otherAgain)

		ownAgain, err := env.repo.OntologyIn(ctx, wsTeamA)
		require.NoError(t, err)
		assert.NotSame(t, own, ownAgain)
		assert.NotNil(t, ownAgain.ConceptByName("drone"))
	})

	t.Run("a public mutation drops every snapshot", func(t *testing.T) {
		env := newTestEnv(t)
		seedConcepts(t, env, "person")

		sandbox, err := env.repo.OntologyIn(ctx, wsTeamA)
		require.NoError(t, err)

		seedConcepts(t, env, "organization")

		after, err := env.repo.OntologyIn(ctx, wsTeamA)
		require.NoError(t, err)
		assert.NotSame(t, sandbox, after)
		assert.NotNil(t, after.ConceptByName("organization"))
	})

	t.Run("ClearCacheIn drops one namespace", func(t *testing.T) {
		env := newTestEnv(t)
		seedConcepts(t, env, "person")

		pub, err := env.repo.Ontology(ctx)
		require.NoError(t, err)
		sandbox, err := env.repo.OntologyIn(ctx, wsTeamA)
		require.NoError(t, err)

		env.repo.ClearCacheIn(wsTeamA)

		pubAgain, err := env.repo.Ontology(ctx)
		require.NoError(t, err)
		assert.Same(t, pub, pubAgain)
		sandboxAgain, err := env.repo.OntologyIn(ctx, wsTeamA)
		require.NoError(t, err)
		assert.NotSame(t, sandbox, sandboxAgain)
	})
}

func TestSnapshotConsistency(t *testing.T) {
	ctx := context.Background()

	t.Run("two parents fail the build", func(t *testing.T) {
		env := newTestEnv(t)
		seedConcepts(t, env, "vehicle", "machine")
		car, err := env.repo.GetOrCreateConcept(ctx, "vehicle", "car", "Car", security.SystemUser)
		require.NoError(t, err)

		// Wire a second IS_A parent behind the repository's back.
		machine, err := env.repo.RequireConceptByName(ctx, "machine")
		require.NoError(t, err)
		vis := elementVisibility(ontology.PublicNamespace)
		_, err = env.store.PrepareEdge(edgeID(EdgeIsA, car.ID(), machine.ID()), car.ID(), machine.ID(), EdgeIsA, vis).
			Save(ctx, security.AllAuthorizations())
		require.NoError(t, err)
		env.repo.ClearCache()

		_, err = env.repo.Ontology(ctx)
		assert.True(t, ontology.IsConsistency(err))
		var cerr *ontology.ConsistencyError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "car", cerr.Entity)
		assert.ElementsMatch(t, []string{"vehicle", "machine"}, cerr.Conflicts)
	})

	t.Run("snapshot drops elements hidden by a soft delete", func(t *testing.T) {
		env := newTestEnv(t)
		seedConcepts(t, env, "person")
		person, err := env.repo.RequireConceptByName(ctx, "person")
		require.NoError(t, err)

		require.NoError(t, env.store.SoftDeleteVertex(ctx, person.ID(), security.AllAuthorizations()))
		env.repo.ClearCache()

		schema, err := env.repo.Ontology(ctx)
		require.NoError(t, err)
		assert.Nil(t, schema.ConceptByName("person"))
	})

	t.Run("domain and range direction is derived from vertex kinds", func(t *testing.T) {
		env := newTestEnv(t)
		seedConcepts(t, env, "person", "vehicle")
		_, err := env.repo.GetOrCreateRelationship(ctx, "", "owns", "Owns", []string{"person"}, []string{"vehicle"}, security.SystemUser)
		require.NoError(t, err)

		rel, err := env.repo.RequireRelationshipByName(ctx, "owns")
		require.NoError(t, err)
		assert.Equal(t, []string{"person"}, rel.DomainConceptNames())
		assert.Equal(t, []string{"vehicle"}, rel.RangeConceptNames())

		// One edge per side of the association.
		hits, err := env.store.Query(security.NewAuthorizations(OntologyVisibilitySource)).
			HasEdgeLabel(EdgeHasEdge).
			Limit(0).
			TotalHits(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), hits)
	})
}

func TestLiveDataInvisibleToSnapshots(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seedConcepts(t, env, "person")

	addLiveVertex(t, env, "data-1", security.ForWorkspace(wsTeamA), map[string]any{
		graph.ConceptTypeProperty: "person",
	})
	env.repo.ClearCache()

	schema, err := env.repo.OntologyIn(ctx, wsTeamA)
	require.NoError(t, err)
	assert.Len(t, schema.Concepts(), 2) // thing + person, never data vertices
}
