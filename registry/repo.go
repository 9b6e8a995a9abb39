package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360studio/semstreams/metric"
	"github.com/c360studio/semstreams/pkg/cache"

	"github.com/c360studio/semreg/config"
	"github.com/c360studio/semreg/graph"
	"github.com/c360studio/semreg/ontology"
	"github.com/c360studio/semreg/security"
)

// Repository implements SchemaRepository over an injected graph.Store.
type Repository struct {
	store      graph.Store
	privileges security.PrivilegeStore
	workspaces security.WorkspaceStore
	cfg        *config.Config
	logger     *slog.Logger

	registry *metric.MetricsRegistry
	metrics  *repositoryMetrics

	schemaCache cache.Cache[*ontology.Schema]
	titlesCache cache.Cache[map[string]string]
}

var _ SchemaRepository = (*Repository)(nil)

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) { r.logger = logger }
}

// WithPrivileges sets the privilege store consulted on mutations.
func WithPrivileges(privileges security.PrivilegeStore) Option {
	return func(r *Repository) { r.privileges = privileges }
}

// WithWorkspaces sets the workspace access store consulted on sandbox
// mutations.
func WithWorkspaces(workspaces security.WorkspaceStore) Option {
	return func(r *Repository) { r.workspaces = workspaces }
}

// WithConfig sets the repository configuration.
func WithConfig(cfg *config.Config) Option {
	return func(r *Repository) { r.cfg = cfg }
}

// WithMetrics enables Prometheus metrics through the given registry.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(r *Repository) { r.registry = registry }
}

// NewRepository builds a Repository. The context scopes the lifetime
// of the background cache cleanup goroutines.
func NewRepository(ctx context.Context, store graph.Store, opts ...Option) (*Repository, error) {
	r := &Repository{
		store:      store,
		privileges: security.NewMemoryPrivilegeStore(),
		workspaces: security.NewMemoryWorkspaceStore(),
		cfg:        config.DefaultConfig(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	cacheCfg := cache.Config{
		Enabled:         true,
		Strategy:        cache.StrategyHybrid,
		MaxSize:         r.cfg.Cache.MaxEntries,
		TTL:             r.cfg.Cache.TTL,
		CleanupInterval: r.cfg.Cache.CleanupInterval,
	}

	var schemaOpts []cache.Option[*ontology.Schema]
	var titleOpts []cache.Option[map[string]string]
	if r.registry != nil {
		schemaOpts = append(schemaOpts, cache.WithMetrics[*ontology.Schema](r.registry, "semreg_schema"))
		titleOpts = append(titleOpts, cache.WithMetrics[map[string]string](r.registry, "semreg_titles"))

		metrics, err := newRepositoryMetrics(r.registry)
		if err != nil {
			return nil, fmt.Errorf("failed to register repository metrics: %w", err)
		}
		r.metrics = metrics
	}

	schemaCache, err := cache.NewFromConfig(ctx, cacheCfg, schemaOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema cache: %w", err)
	}
	r.schemaCache = schemaCache

	titlesCache, err := cache.NewFromConfig(ctx, cacheCfg, titleOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create titles cache: %w", err)
	}
	r.titlesCache = titlesCache

	return r, nil
}

// Close releases the caches and their background goroutines.
func (r *Repository) Close() error {
	if err := r.schemaCache.Close(); err != nil {
		return err
	}
	return r.titlesCache.Close()
}

// nsKey maps a namespace to a cache key. Cache keys must be non-empty,
// and no workspace identifier collides with "public" because workspace
// ids carry the workspace prefix.
func nsKey(namespace string) string {
	if ontology.IsPublic(namespace) {
		return "public"
	}
	return namespace
}

// authsFor builds the read authorizations for a namespace: the
// catalog's base visibility term plus, for sandboxes, the workspace
// term. Public readers never see sandbox-private elements.
func authsFor(namespace string) security.Authorizations {
	if ontology.IsPublic(namespace) {
		return security.NewAuthorizations(OntologyVisibilitySource)
	}
	return security.NewAuthorizations(OntologyVisibilitySource, namespace)
}

// checkPrivileges gates catalog mutations. System actors bypass all
// checks. Public mutations require the publish privilege; sandbox
// mutations require write access to the workspace plus the add
// privilege.
func (r *Repository) checkPrivileges(user security.User, namespace string) error {
	if user.System {
		return nil
	}
	if ontology.IsPublic(namespace) {
		if !r.privileges.Has(user, security.PrivilegeOntologyPublish) {
			return &ontology.AccessError{User: user.Username, Namespace: namespace, Required: security.PrivilegeOntologyPublish}
		}
		return nil
	}
	if r.workspaces.Access(user, namespace) != security.WorkspaceAccessWrite {
		return &ontology.AccessError{User: user.Username, Namespace: namespace, Required: "workspace write access"}
	}
	if !r.privileges.Has(user, security.PrivilegeOntologyAdd) {
		return &ontology.AccessError{User: user.Username, Namespace: namespace, Required: security.PrivilegeOntologyAdd}
	}
	return nil
}

// checkDeletePrivileges gates catalog deletes, which are only ever
// permitted against the public catalog and require the admin
// privilege.
func (r *Repository) checkDeletePrivileges(user security.User, namespace string) error {
	if !ontology.IsPublic(namespace) {
		return ontology.NewValidationError(namespace, "elements cannot be deleted from within a sandbox")
	}
	if user.System {
		return nil
	}
	if !r.privileges.Has(user, security.PrivilegeAdmin) {
		return &ontology.AccessError{User: user.Username, Namespace: namespace, Required: security.PrivilegeAdmin}
	}
	return nil
}

// elementVisibility is the visibility stamped on new catalog vertices
// and edges: the catalog source term plus the workspace term when
// writing inside a sandbox.
func elementVisibility(namespace string) security.Visibility {
	v := security.Visibility{Source: OntologyVisibilitySource}
	if !ontology.IsPublic(namespace) {
		v.Workspaces = []string{namespace}
	}
	return v
}

// ClearCache implements SchemaRepository.
func (r *Repository) ClearCache() {
	if err := r.schemaCache.Clear(); err != nil {
		r.logger.Warn("Failed to clear schema cache", slog.String("error", err.Error()))
	}
	if err := r.titlesCache.Clear(); err != nil {
		r.logger.Warn("Failed to clear titles cache", slog.String("error", err.Error()))
	}
	if r.metrics != nil {
		r.metrics.recordInvalidation("all")
	}
}

// ClearCacheIn implements SchemaRepository. Invalidating the public
// namespace also drops the visible-titles cache, which is derived from
// the public snapshot.
func (r *Repository) ClearCacheIn(namespace string) {
	if _, err := r.schemaCache.Delete(nsKey(namespace)); err != nil {
		r.logger.Warn("Failed to invalidate schema cache",
			slog.String("namespace", nsKey(namespace)),
			slog.String("error", err.Error()))
	}
	if ontology.IsPublic(namespace) {
		if err := r.titlesCache.Clear(); err != nil {
			r.logger.Warn("Failed to clear titles cache", slog.String("error", err.Error()))
		}
	}
	if r.metrics != nil {
		r.metrics.recordInvalidation(nsKey(namespace))
	}
}

// invalidate drops the snapshot for a namespace after a mutation. A
// sandbox mutation invalidates only that sandbox; a public mutation
// invalidates everything, since every sandbox overlays the public
// catalog.
func (r *Repository) invalidate(namespace string) {
	if ontology.IsPublic(namespace) {
		r.ClearCache()
		return
	}
	r.ClearCacheIn(namespace)
}
