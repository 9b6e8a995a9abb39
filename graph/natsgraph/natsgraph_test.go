package natsgraph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"

	"github.com/c360studio/semreg/graph"
	"github.com/c360studio/semreg/security"
)

func TestIsNotFound(t *testing.T) {
	t.Run("recognizes the jetstream key miss", func(t *testing.T) {
		assert.True(t, isNotFound(jetstream.ErrKeyNotFound))
	})

	t.Run("recognizes a wrapped key miss", func(t *testing.T) {
		err := fmt.Errorf("get vertex o_c_abc: %w", jetstream.ErrKeyNotFound)
		assert.True(t, isNotFound(err))
	})

	t.Run("other errors are not a miss", func(t *testing.T) {
		assert.False(t, isNotFound(errors.New("nats: timeout")))
		assert.False(t, isNotFound(jetstream.ErrBucketNotFound))
	})

	t.Run("nil is not a miss", func(t *testing.T) {
		assert.False(t, isNotFound(nil))
	})
}

func TestEdgeOrdering(t *testing.T) {
	mkEdge := func(id string, seq int64) *edgeDoc {
		return &edgeDoc{
			vertexDoc: vertexDoc{ID: id},
			Label:     "ontology.hasProperty",
			Seq:       seq,
		}
	}

	t.Run("edges sort by creation sequence", func(t *testing.T) {
		docs := []*edgeDoc{mkEdge("c", 30), mkEdge("a", 10), mkEdge("b", 20)}
		sortEdgeDocs(docs)

		ids := make([]string, len(docs))
		for i, d := range docs {
			ids[i] = d.ID
		}
		assert.Equal(t, []string{"a", "b", "c"}, ids)
	})

	t.Run("clock-seeded sequences keep pre-restart edges first", func(t *testing.T) {
		// A restarted store reseeds its counter from the clock, so new
		// edges carry sequences far above the old ones.
		docs := []*edgeDoc{mkEdge("new", 1756449000000000001), mkEdge("old", 42)}
		sortEdgeDocs(docs)

		assert.Equal(t, "old", docs[0].ID)
		assert.Equal(t, "new", docs[1].ID)
	})

	t.Run("store hands out strictly increasing sequences", func(t *testing.T) {
		s := &Store{}
		s.seq.Store(100)

		first := s.seq.Add(1)
		second := s.seq.Add(1)
		assert.Equal(t, int64(101), first)
		assert.Equal(t, int64(102), second)
	})
}

func TestApplyOps(t *testing.T) {
	t.Run("set replaces the matching key and name", func(t *testing.T) {
		doc := &vertexDoc{ID: "v1"}
		applyOps(doc, []op{
			{name: "color", value: "red", vis: security.Public},
			{key: "WORKSPACE_team-a", name: "color", value: "blue", vis: security.Public},
			{name: "color", value: "green", vis: security.Public},
		})

		assert.Len(t, doc.Props, 2)
		assert.Equal(t, "green", doc.Props[0].Value)
		assert.Equal(t, "blue", doc.Props[1].Value)
	})

	t.Run("keyed remove leaves the unkeyed value", func(t *testing.T) {
		doc := &vertexDoc{ID: "v1", Props: []graph.Property{
			{Name: "color", Value: "red"},
			{Key: "WORKSPACE_team-a", Name: "color", Value: "blue"},
		}}
		applyOps(doc, []op{{remove: true, key: "WORKSPACE_team-a", name: "color"}})

		assert.Len(t, doc.Props, 1)
		assert.Equal(t, "red", doc.Props[0].Value)
	})

	t.Run("unkeyed remove drops every value of the name", func(t *testing.T) {
		doc := &vertexDoc{ID: "v1", Props: []graph.Property{
			{Name: "color", Value: "red"},
			{Key: "WORKSPACE_team-a", Name: "color", Value: "blue"},
			{Name: "size", Value: "large"},
		}}
		applyOps(doc, []op{{remove: true, name: "color"}})

		assert.Len(t, doc.Props, 1)
		assert.Equal(t, "size", doc.Props[0].Name)
	})
}

func TestElementView(t *testing.T) {
	wsA := security.ForWorkspace("WORKSPACE_team-a")
	teamA := security.NewAuthorizations("WORKSPACE_team-a")

	t.Run("invisible property values are filtered out", func(t *testing.T) {
		doc := &vertexDoc{ID: "v1", Props: []graph.Property{
			{Name: "color", Value: "red", Visibility: security.Public},
			{Key: "WORKSPACE_team-b", Name: "color", Value: "blue", Visibility: security.ForWorkspace("WORKSPACE_team-b")},
		}}
		v := newVertex(doc, teamA)

		assert.Len(t, v.Properties("color"), 1)
		value, ok := v.Property("color")
		assert.True(t, ok)
		assert.Equal(t, "red", value)
	})

	t.Run("unkeyed value wins when both are visible", func(t *testing.T) {
		doc := &vertexDoc{ID: "v1", Props: []graph.Property{
			{Key: "WORKSPACE_team-a", Name: "color", Value: "blue", Visibility: wsA},
			{Name: "color", Value: "red", Visibility: security.Public},
		}}
		v := newVertex(doc, teamA)

		value, ok := v.Property("color")
		assert.True(t, ok)
		assert.Equal(t, "red", value)
	})

	t.Run("hidden docs need the include-hidden hint", func(t *testing.T) {
		doc := &vertexDoc{ID: "v1", Hidden: true}
		assert.False(t, docReadable(doc, graph.FetchHints{}, security.AllAuthorizations()))
		assert.True(t, docReadable(doc, graph.FetchHints{IncludeHidden: true}, security.AllAuthorizations()))
	})
}

func TestDefKey(t *testing.T) {
	assert.Equal(t, "displayLabel", defKey("displayLabel"))
	assert.Equal(t, "has_a_space", defKey("has a space"))
	assert.Equal(t, "slash_and_star_", defKey("slash/and/star*"))
}
