// Package natsgraph implements the graph.Store contract over NATS
// JetStream key-value buckets. Vertices, edges, and property
// definitions are JSON documents in three buckets; queries and
// traversals scan the relevant bucket. It is a remote-capable backend
// suitable for small catalogs, not a general-purpose graph engine.
package natsgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/c360studio/semstreams/natsclient"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/semreg/graph"
	"github.com/c360studio/semreg/security"
)

// Bucket names for each document kind.
const (
	BucketVertices    = "SEMREG_VERTICES"
	BucketEdges       = "SEMREG_EDGES"
	BucketDefinitions = "SEMREG_DEFINITIONS"
)

// Store implements graph.Store over JetStream KV.
type Store struct {
	vertices jetstream.KeyValue
	edges    jetstream.KeyValue
	defs     jetstream.KeyValue
	seq      atomic.Int64
	logger   *slog.Logger
}

// New creates the store, creating the KV buckets if they don't exist.
func New(ctx context.Context, nc *natsclient.Client, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{logger: logger}
	// Edge sequence numbers seed from the clock so ordering survives
	// process restarts.
	s.seq.Store(time.Now().UnixNano())
	for _, b := range []struct {
		name string
		dst  *jetstream.KeyValue
	}{
		{BucketVertices, &s.vertices},
		{BucketEdges, &s.edges},
		{BucketDefinitions, &s.defs},
	} {
		kv, err := nc.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
			Bucket:      b.name,
			Description: fmt.Sprintf("Semreg %s storage", strings.ToLower(b.name)),
			History:     1,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s bucket: %w", strings.ToLower(b.name), err)
		}
		*b.dst = kv
	}
	return s, nil
}

// vertexDoc is the stored form of a vertex.
type vertexDoc struct {
	ID         string              `json:"id"`
	Visibility security.Visibility `json:"visibility,omitempty"`
	Hidden     bool                `json:"hidden,omitempty"`
	Props      []graph.Property    `json:"props,omitempty"`
}

// edgeDoc is the stored form of an edge. Seq preserves creation order
// for ordered traversals.
type edgeDoc struct {
	vertexDoc
	Label string `json:"label"`
	Out   string `json:"out"`
	In    string `json:"in"`
	Seq   int64  `json:"seq"`
}

func (s *Store) getVertexDoc(ctx context.Context, id string) (*vertexDoc, error) {
	entry, err := s.vertices.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get vertex %s: %w", id, err)
	}
	var doc vertexDoc
	if err := json.Unmarshal(entry.Value(), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal vertex %s: %w", id, err)
	}
	return &doc, nil
}

func (s *Store) putVertexDoc(ctx context.Context, doc *vertexDoc) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal vertex %s: %w", doc.ID, err)
	}
	if _, err := s.vertices.Put(ctx, doc.ID, data); err != nil {
		return fmt.Errorf("store vertex %s: %w", doc.ID, err)
	}
	return nil
}

func (s *Store) getEdgeDoc(ctx context.Context, id string) (*edgeDoc, error) {
	entry, err := s.edges.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get edge %s: %w", id, err)
	}
	var doc edgeDoc
	if err := json.Unmarshal(entry.Value(), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal edge %s: %w", id, err)
	}
	return &doc, nil
}

func (s *Store) putEdgeDoc(ctx context.Context, doc *edgeDoc) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal edge %s: %w", doc.ID, err)
	}
	if _, err := s.edges.Put(ctx, doc.ID, data); err != nil {
		return fmt.Errorf("store edge %s: %w", doc.ID, err)
	}
	return nil
}

// allEdgeDocs loads every edge document, sorted by creation sequence.
func (s *Store) allEdgeDocs(ctx context.Context) ([]*edgeDoc, error) {
	keys, err := s.edges.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list edge keys: %w", err)
	}
	docs := make([]*edgeDoc, 0, len(keys))
	for _, key := range keys {
		doc, err := s.getEdgeDoc(ctx, key)
		if err != nil || doc == nil {
			continue
		}
		docs = append(docs, doc)
	}
	sortEdgeDocs(docs)
	return docs, nil
}

func (s *Store) allVertexDocs(ctx context.Context) ([]*vertexDoc, error) {
	keys, err := s.vertices.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list vertex keys: %w", err)
	}
	docs := make([]*vertexDoc, 0, len(keys))
	for _, key := range keys {
		doc, err := s.getVertexDoc(ctx, key)
		if err != nil || doc == nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// GetVertex implements graph.Store.
func (s *Store) GetVertex(ctx context.Context, id string, hints graph.FetchHints, auths security.Authorizations) (graph.Vertex, error) {
	doc, err := s.getVertexDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil || !docReadable(doc, hints, auths) {
		return nil, nil
	}
	return newVertex(doc, auths), nil
}

// GetVertices implements graph.Store.
func (s *Store) GetVertices(ctx context.Context, ids []string, hints graph.FetchHints, auths security.Authorizations) ([]graph.Vertex, error) {
	out := make([]graph.Vertex, 0, len(ids))
	for _, id := range ids {
		v, err := s.GetVertex(ctx, id, hints, auths)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out = append(out, v)
		}
	}
	return out, nil
}

// VerticesWithProperty implements graph.Store.
func (s *Store) VerticesWithProperty(ctx context.Context, name string, value any, hints graph.FetchHints, auths security.Authorizations) ([]graph.Vertex, error) {
	docs, err := s.allVertexDocs(ctx)
	if err != nil {
		return nil, err
	}
	var out []graph.Vertex
	for _, doc := range docs {
		if !docReadable(doc, hints, auths) {
			continue
		}
		v := newVertex(doc, auths)
		if propMatches(v.props, name, value, false) {
			out = append(out, v)
		}
	}
	return out, nil
}

// GetEdge implements graph.Store.
func (s *Store) GetEdge(ctx context.Context, id string, hints graph.FetchHints, auths security.Authorizations) (graph.Edge, error) {
	doc, err := s.getEdgeDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil || !docReadable(&doc.vertexDoc, hints, auths) {
		return nil, nil
	}
	return newEdge(doc, auths), nil
}

// SoftDeleteVertex hides the vertex and its incident edges.
func (s *Store) SoftDeleteVertex(ctx context.Context, id string, auths security.Authorizations) error {
	doc, err := s.getVertexDoc(ctx, id)
	if err != nil {
		return err
	}
	if doc == nil || !auths.CanSee(doc.Visibility) {
		return nil
	}
	doc.Hidden = true
	if err := s.putVertexDoc(ctx, doc); err != nil {
		return err
	}
	edges, err := s.allEdgeDocs(ctx)
	if err != nil {
		return err
	}
	for _, e := range edges {
		if e.Out == id || e.In == id {
			e.Hidden = true
			if err := s.putEdgeDoc(ctx, e); err != nil {
				return err
			}
		}
	}
	return nil
}

// SoftDeleteEdge hides the edge.
func (s *Store) SoftDeleteEdge(ctx context.Context, id string, auths security.Authorizations) error {
	doc, err := s.getEdgeDoc(ctx, id)
	if err != nil {
		return err
	}
	if doc == nil || !auths.CanSee(doc.Visibility) {
		return nil
	}
	doc.Hidden = true
	return s.putEdgeDoc(ctx, doc)
}

// AdjacentVertexIDs implements graph.Store.
func (s *Store) AdjacentVertexIDs(ctx context.Context, vertexID string, dir graph.Direction, label string, hints graph.FetchHints, auths security.Authorizations) ([]string, error) {
	docs, err := s.allEdgeDocs(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range docs {
		if e.Label != label || !docReadable(&e.vertexDoc, hints, auths) {
			continue
		}
		switch {
		case (dir == graph.Out || dir == graph.Both) && e.Out == vertexID:
			out = append(out, e.In)
		case (dir == graph.In || dir == graph.Both) && e.In == vertexID:
			out = append(out, e.Out)
		}
	}
	return out, nil
}

// EdgesOf implements graph.Store.
func (s *Store) EdgesOf(ctx context.Context, vertexID string, dir graph.Direction, label string, hints graph.FetchHints, auths security.Authorizations) ([]graph.Edge, error) {
	docs, err := s.allEdgeDocs(ctx)
	if err != nil {
		return nil, err
	}
	var out []graph.Edge
	for _, e := range docs {
		if e.Label != label || !docReadable(&e.vertexDoc, hints, auths) {
			continue
		}
		if (dir == graph.Out || dir == graph.Both) && e.Out == vertexID ||
			(dir == graph.In || dir == graph.Both) && e.In == vertexID {
			out = append(out, newEdge(e, auths))
		}
	}
	return out, nil
}

// DefineProperty implements graph.Store. Redefining with a different
// data type logs a warning and keeps the stored definition.
func (s *Store) DefineProperty(ctx context.Context, def graph.PropertyDefinition) error {
	key := defKey(def.Name)
	entry, err := s.defs.Get(ctx, key)
	if err == nil {
		var existing graph.PropertyDefinition
		if err := json.Unmarshal(entry.Value(), &existing); err == nil && existing.DataType != def.DataType {
			s.logger.Warn("property already defined with different data type",
				slog.String("property", def.Name),
				slog.String("existing", string(existing.DataType)),
				slog.String("requested", string(def.DataType)))
		}
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("get property definition %s: %w", def.Name, err)
	}
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("marshal property definition %s: %w", def.Name, err)
	}
	if _, err := s.defs.Put(ctx, key, data); err != nil {
		return fmt.Errorf("store property definition %s: %w", def.Name, err)
	}
	return nil
}

// PropertyDefinition implements graph.Store.
func (s *Store) PropertyDefinition(name string) (graph.PropertyDefinition, bool) {
	entry, err := s.defs.Get(context.Background(), defKey(name))
	if err != nil {
		return graph.PropertyDefinition{}, false
	}
	var def graph.PropertyDefinition
	if err := json.Unmarshal(entry.Value(), &def); err != nil {
		return graph.PropertyDefinition{}, false
	}
	return def, true
}

// Flush implements graph.Store. KV puts are durable on return, so
// this is a no-op barrier.
func (s *Store) Flush(context.Context) error { return nil }

// defKey makes a property name safe as a KV key.
func defKey(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}

func docReadable(doc *vertexDoc, hints graph.FetchHints, auths security.Authorizations) bool {
	if doc.Hidden && !hints.IncludeHidden {
		return false
	}
	return auths.CanSee(doc.Visibility)
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "key not found")
}
