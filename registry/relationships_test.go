package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semreg/ontology"
	"github.com/c360studio/semreg/security"
)

func seedConcepts(t *testing.T, env *testEnv, names ...string) {
	t.Helper()
	ctx := context.Background()
	for _, name := range names {
		_, err := env.repo.GetOrCreateConcept(ctx, "", name, "", security.SystemUser)
		require.NoError(t, err)
	}
}

func TestGetOrCreateRelationship(t *testing.T) {
	ctx := context.Background()

	t.Run("creates with domain and range", func(t *testing.T) {
		env := newTestEnv(t)
		seedConcepts(t, env, "person", "vehicle")

		rel, err := env.repo.GetOrCreateRelationship(ctx, "", "owns", "Owns", []string{"person"}, []string{"vehicle"}, security.SystemUser)
		require.NoError(t, err)
		assert.Equal(t, "owns", rel.Name())
		assert.Equal(t, ontology.RootRelationshipName, rel.ParentName())
		assert.Equal(t, []string{"person"}, rel.DomainConceptNames())
		assert.Equal(t, []string{"vehicle"}, rel.RangeConceptNames())

		// Root relationship bootstrapped alongside.
		root, err := env.repo.RequireRelationshipByName(ctx, ontology.RootRelationshipName)
		require.NoError(t, err)
		assert.Equal(t, "", root.ParentName())
	})

	t.Run("idempotent by name", func(t *testing.T) {
		env := newTestEnv(t)
		seedConcepts(t, env, "person", "vehicle")

		first, err := env.repo.GetOrCreateRelationship(ctx, "", "owns", "Owns", []string{"person"}, []string{"vehicle"}, security.SystemUser)
		require.NoError(t, err)
		again, err := env.repo.GetOrCreateRelationship(ctx, "", "owns", "Possesses", nil, nil, security.SystemUser)
		require.NoError(t, err)
		assert.Equal(t, first.ID(), again.ID())
		assert.Equal(t, "Owns", again.DisplayName())
	})

	t.Run("requires domain and range", func(t *testing.T) {
		env := newTestEnv(t)
		seedConcepts(t, env, "person")

		_, err := env.repo.GetOrCreateRelationship(ctx, "", "owns", "Owns", []string{"person"}, nil, security.SystemUser)
		assert.True(t, ontology.IsValidation(err))
		_, err = env.repo.GetOrCreateRelationship(ctx, "", "owns", "Owns", nil, []string{"person"}, security.SystemUser)
		assert.True(t, ontology.IsValidation(err))
	})

	t.Run("unknown concepts fail", func(t *testing.T) {
		env := newTestEnv(t)
		seedConcepts(t, env, "person")
		_, err := env.repo.GetOrCreateRelationship(ctx, "", "owns", "Owns", []string{"person"}, []string{"ghost"}, security.SystemUser)
		require.Error(t, err)
		assert.True(t, ontology.IsValidation(err))
	})

	t.Run("dynamic name includes domain and range", func(t *testing.T) {
		env := newTestEnv(t)
		seedConcepts(t, env, "person", "vehicle", "house")

		a, err := env.repo.GetOrCreateRelationship(ctx, "", "", "Owns", []string{"person"}, []string{"vehicle"}, security.SystemUser)
		require.NoError(t, err)
		b, err := env.repo.GetOrCreateRelationship(ctx, "", "", "Owns", []string{"person"}, []string{"house"}, security.SystemUser)
		require.NoError(t, err)
		assert.NotEqual(t, a.Name(), b.Name())
	})
}

func TestAddRelationshipConcepts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seedConcepts(t, env, "person", "organization", "vehicle", "house")

	_, err := env.repo.GetOrCreateRelationship(ctx, "", "owns", "Owns", []string{"person"}, []string{"vehicle"}, security.SystemUser)
	require.NoError(t, err)

	require.NoError(t, env.repo.AddDomainConceptsToRelationship(ctx, "owns", []string{"organization"}, security.SystemUser))
	require.NoError(t, env.repo.AddRangeConceptsToRelationship(ctx, "owns", []string{"house"}, security.SystemUser))

	rel, err := env.repo.RequireRelationshipByName(ctx, "owns")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"person", "organization"}, rel.DomainConceptNames())
	assert.ElementsMatch(t, []string{"vehicle", "house"}, rel.RangeConceptNames())

	t.Run("re-adding is a no-op", func(t *testing.T) {
		require.NoError(t, env.repo.AddDomainConceptsToRelationship(ctx, "owns", []string{"organization"}, security.SystemUser))
		rel, err := env.repo.RequireRelationshipByName(ctx, "owns")
		require.NoError(t, err)
		assert.Len(t, rel.DomainConceptNames(), 2)
	})

	t.Run("unknown relationship fails", func(t *testing.T) {
		err := env.repo.AddDomainConceptsToRelationship(ctx, "ghost", []string{"person"}, security.SystemUser)
		assert.ErrorIs(t, err, ontology.ErrNotFound)
	})

	t.Run("unknown concept fails", func(t *testing.T) {
		err := env.repo.AddRangeConceptsToRelationship(ctx, "owns", []string{"ghost"}, security.SystemUser)
		assert.True(t, ontology.IsValidation(err))
	})
}

func TestAddInverseOf(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seedConcepts(t, env, "person", "vehicle")

	_, err := env.repo.GetOrCreateRelationship(ctx, "", "owns", "Owns", []string{"person"}, []string{"vehicle"}, security.SystemUser)
	require.NoError(t, err)
	_, err = env.repo.GetOrCreateRelationship(ctx, "", "ownedBy", "Owned By", []string{"vehicle"}, []string{"person"}, security.SystemUser)
	require.NoError(t, err)

	require.NoError(t, env.repo.AddInverseOf(ctx, "owns", "ownedBy", security.SystemUser))

	owns, err := env.repo.RequireRelationshipByName(ctx, "owns")
	require.NoError(t, err)
	ownedBy, err := env.repo.RequireRelationshipByName(ctx, "ownedBy")
	require.NoError(t, err)

	// Symmetric: each reports the other.
	assert.Equal(t, []string{"ownedBy"}, owns.InverseOfNames())
	assert.Equal(t, []string{"owns"}, ownedBy.InverseOfNames())

	t.Run("missing side fails", func(t *testing.T) {
		err := env.repo.AddInverseOf(ctx, "owns", "ghost", security.SystemUser)
		assert.ErrorIs(t, err, ontology.ErrNotFound)
	})
}

func TestRelationshipByIntent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seedConcepts(t, env, "person", "vehicle")

	rel, err := env.repo.GetOrCreateRelationship(ctx, "", "owns", "Owns", []string{"person"}, []string{"vehicle"}, security.SystemUser)
	require.NoError(t, err)
	require.NoError(t, rel.AddIntent(ctx, "ownership", security.SystemUser, security.AllAuthorizations()))

	got, err := env.repo.RelationshipByIntent(ctx, "ownership")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "owns", got.Name())

	_, err = env.repo.RequireRelationshipByIntent(ctx, "missing")
	assert.ErrorIs(t, err, ontology.ErrNotFound)
}
