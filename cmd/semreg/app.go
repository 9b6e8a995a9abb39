package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/c360studio/semstreams/metric"
	"github.com/c360studio/semstreams/natsclient"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/semreg/config"
	"github.com/c360studio/semreg/factory"
	"github.com/c360studio/semreg/graph"
	"github.com/c360studio/semreg/graph/memgraph"
	"github.com/c360studio/semreg/graph/natsgraph"
	"github.com/c360studio/semreg/ontology"
	"github.com/c360studio/semreg/registry"
	"github.com/c360studio/semreg/security"
)

// app wires the configured backend, the repository, and the catalog
// factory for one command invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	nats    *natsclient.Client
	repo    *registry.Repository
	factory *factory.Factory
}

func newApp(ctx context.Context, configPath, logLevel string) (*app, error) {
	// Configure logging
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(configPath, logger)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}

	var store graph.Store
	switch cfg.Backend {
	case config.BackendNATS:
		nc, err := connectToNATS(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		a.nats = nc

		store, err = natsgraph.New(ctx, nc, logger)
		if err != nil {
			nc.Close(ctx)
			return nil, fmt.Errorf("create nats graph store: %w", err)
		}
	default:
		store = memgraph.New(logger)
	}

	metricsRegistry := metric.NewMetricsRegistry()

	repo, err := registry.NewRepository(ctx, store,
		registry.WithConfig(cfg),
		registry.WithLogger(logger),
		registry.WithMetrics(metricsRegistry),
	)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("create repository: %w", err)
	}
	a.repo = repo
	a.factory = factory.New(repo, logger)

	return a, nil
}

// Close releases the repository caches and the NATS connection.
func (a *app) Close(ctx context.Context) {
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.logger.Warn("Failed to close repository", "error", err)
		}
	}
	if a.nats != nil {
		a.nats.Close(ctx)
	}
}

func loadConfig(configPath string, logger *slog.Logger) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.NewLoader(logger).Load()
}

func connectToNATS(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*natsclient.Client, error) {
	natsURL := cfg.NATS.URL

	// Environment variable override takes precedence
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		natsURL = envURL
	} else if envURL := os.Getenv("SEMREG_NATS_URL"); envURL != "" {
		natsURL = envURL
	}

	logger.Info("Connecting to NATS", "url", natsURL)

	client, err := natsclient.NewClient(natsURL,
		natsclient.WithName(appName),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
		natsclient.WithHealthInterval(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, wrapNATSError(err, natsURL)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, wrapNATSError(err, natsURL)
	}

	logger.Info("Connected to NATS", "url", natsURL)
	return client, nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

To start NATS:
  docker compose up -d nats

Or set NATS_URL environment variable to point to your NATS server.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}

func (a *app) runBootstrap(ctx context.Context, workspace, catalogPath string) error {
	if err := a.factory.EnsureBaseline(ctx, security.SystemUser); err != nil {
		return fmt.Errorf("ensure baseline: %w", err)
	}
	a.logger.Info("Baseline catalog ready")

	if catalogPath == "" {
		return nil
	}

	catalog, err := loadCatalog(catalogPath)
	if err != nil {
		return err
	}
	if err := a.factory.Apply(ctx, workspace, catalog, security.SystemUser); err != nil {
		return fmt.Errorf("apply catalog: %w", err)
	}

	a.logger.Info("Catalog applied",
		"path", catalogPath,
		"workspace", workspace,
		"concepts", len(catalog.Concepts),
		"relationships", len(catalog.Relationships),
		"properties", len(catalog.Properties))
	return nil
}

func loadCatalog(path string) (factory.Catalog, error) {
	var catalog factory.Catalog

	data, err := os.ReadFile(path)
	if err != nil {
		return catalog, fmt.Errorf("read catalog file: %w", err)
	}
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return catalog, fmt.Errorf("parse catalog file: %w", err)
	}
	return catalog, nil
}

// snapshotDocument is the JSON shape emitted by the show command.
type snapshotDocument struct {
	Namespace     string                         `json:"namespace"`
	Concepts      []*ontology.ClientConcept      `json:"concepts"`
	Relationships []*ontology.ClientRelationship `json:"relationships"`
	Properties    []*ontology.ClientProperty     `json:"properties"`
}

func (a *app) runShow(ctx context.Context, workspace string) error {
	schema, err := a.repo.OntologyIn(ctx, workspace)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	doc := snapshotDocument{Namespace: schema.Namespace()}
	for _, c := range schema.Concepts() {
		doc.Concepts = append(doc.Concepts, c.ClientAPI(workspace))
	}
	for _, r := range schema.Relationships() {
		doc.Relationships = append(doc.Relationships, r.ClientAPI(workspace))
	}
	for _, p := range schema.Properties() {
		doc.Properties = append(doc.Properties, p.ClientAPI(workspace))
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func (a *app) runTitles(ctx context.Context) error {
	titles, err := a.repo.VisiblePropertyTitles(ctx)
	if err != nil {
		return fmt.Errorf("load titles: %w", err)
	}

	out, err := json.MarshalIndent(titles, "", "  ")
	if err != nil {
		return fmt.Errorf("encode titles: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func (a *app) runPublish(ctx context.Context, kind, name, workspace string) error {
	if workspace == "" {
		return fmt.Errorf("publish requires --workspace")
	}

	var err error
	switch kind {
	case "concept":
		err = a.repo.PublishConcept(ctx, name, workspace, security.SystemUser)
	case "relationship":
		err = a.repo.PublishRelationship(ctx, name, workspace, security.SystemUser)
	case "property":
		err = a.repo.PublishProperty(ctx, name, workspace, security.SystemUser)
	default:
		return fmt.Errorf("unknown element kind %q (want concept, relationship, or property)", kind)
	}
	if err != nil {
		return fmt.Errorf("publish %s %s: %w", kind, name, err)
	}

	a.logger.Info("Element published", "kind", kind, "name", name, "workspace", workspace)
	return nil
}

func (a *app) runDelete(ctx context.Context, kind, name string) error {
	var err error
	switch kind {
	case "concept":
		err = a.repo.DeleteConcept(ctx, name, security.SystemUser)
	case "relationship":
		err = a.repo.DeleteRelationship(ctx, name, security.SystemUser)
	case "property":
		err = a.repo.DeleteProperty(ctx, name, security.SystemUser)
	default:
		return fmt.Errorf("unknown element kind %q (want concept, relationship, or property)", kind)
	}
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, name, err)
	}

	a.logger.Info("Element deleted", "kind", kind, "name", name)
	return nil
}
