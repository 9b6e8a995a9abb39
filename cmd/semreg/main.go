// Package main provides the semreg binary entry point.
// Semreg is a sandboxed ontology registry: a typed catalog of
// concepts, relationships, and schema properties stored in a graph,
// with per-workspace sandboxes that publish into the shared catalog.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semreg"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		workspace  string
	)

	cmd := &cobra.Command{
		Use:   "semreg",
		Short: "Sandboxed ontology registry",
		Long: `Semreg manages a typed ontology catalog backed by a graph store.

Concepts, relationships, and schema properties live as graph vertices
and edges. Changes are made inside per-workspace sandboxes that
overlay the shared public catalog; publishing promotes a sandboxed
element into the public catalog for everyone.

The memory backend keeps the catalog in process (useful for
inspection and dry runs); the nats backend persists it in JetStream
key-value buckets.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace namespace (empty means the public catalog)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	var catalogPath string
	bootstrap := &cobra.Command{
		Use:   "bootstrap",
		Short: "Seed the baseline catalog, optionally applying a catalog file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, configPath, logLevel, func(a *app) error {
				return a.runBootstrap(cmd.Context(), workspace, catalogPath)
			})
		},
	}
	bootstrap.Flags().StringVar(&catalogPath, "catalog", "", "Catalog file (YAML) to apply after the baseline")
	cmd.AddCommand(bootstrap)

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the catalog snapshot for a namespace as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, configPath, logLevel, func(a *app) error {
				return a.runShow(cmd.Context(), workspace)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "titles",
		Short: "Print display titles of user-visible public properties",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, configPath, logLevel, func(a *app) error {
				return a.runTitles(cmd.Context())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "publish <concept|relationship|property> <name>",
		Short: "Publish a sandboxed element into the public catalog",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, configPath, logLevel, func(a *app) error {
				return a.runPublish(cmd.Context(), args[0], args[1], workspace)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <concept|relationship|property> <name>",
		Short: "Delete an unreferenced public element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, configPath, logLevel, func(a *app) error {
				return a.runDelete(cmd.Context(), args[0], args[1])
			})
		},
	})

	return cmd
}

// withApp builds the application around a command invocation and
// guarantees teardown.
func withApp(cmd *cobra.Command, configPath, logLevel string, fn func(*app) error) error {
	a, err := newApp(cmd.Context(), configPath, logLevel)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())
	return fn(a)
}
