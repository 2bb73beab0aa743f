package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Kauxtubh/pinecone"
	"github.com/Kauxtubh/pinecone/index"
	"github.com/Kauxtubh/pinecone/internal/config"
	"github.com/Kauxtubh/pinecone/internal/gateway"
	"github.com/Kauxtubh/pinecone/internal/maintenance"
	"github.com/Kauxtubh/pinecone/internal/version"
)

var (
	cfgFile string
	verbose bool
	port    int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pinecone",
	Short: "Pinecone - single-node vector index engine",
	Long: `Pinecone is a single-node vector index engine. It stores embedding
vectors in named indexes partitioned into namespaces, answers top-k
similarity queries under cosine, euclidean and dotproduct metrics, and
filters candidates with Mongo-style metadata predicates.

Run it without arguments to start the HTTP gateway, or use the client
subcommands (stats, top, snapshot) against a running server.`,
	Version: version.Full(),
}

// serveCmd represents the server command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pinecone HTTP gateway",
	Long: `Start the HTTP gateway. This is the main server mode: it restores the
last snapshot, applies the bootstrap manifest if one is configured, runs
the maintenance scheduler and serves the REST and stats socket API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("pinecone %s\n", version.Full())
		buildInfo := version.GetBuildInfo()

		if buildInfo.GitCommit != "unknown" {
			fmt.Printf("Git commit: %s\n", buildInfo.GitCommit)
		}
		if buildInfo.BuildDate != "unknown" {
			fmt.Printf("Build date: %s\n", buildInfo.BuildDate)
		}
		fmt.Printf("Go version: %s\n", buildInfo.GoVersion)

		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.json", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	// Server command flags
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "gateway port (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(topCmd)
	rootCmd.AddCommand(snapshotCmd)

	// If no command is specified, default to serve
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	}
}

func runServe() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override port if specified
	if port != 0 {
		cfg.Port = port
	}
	if verbose || cfg.Debug.VerboseLogging {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	// Build the engine
	builder := pinecone.NewBuilder().WithSQLite(cfg.SnapshotPath())
	if cfg.EngineKind() == "hnsw" {
		builder = builder.WithHNSW(cfg.HNSWOptions())
	}
	db, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}
	defer db.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal: %v", sig)
		cancel()
	}()

	// Restore the previous snapshot, then apply the bootstrap manifest
	if err := db.LoadSnapshot(ctx); err != nil {
		log.Printf("WARNING: Could not restore snapshot: %v", err)
	}
	if cfg.Bootstrap.ManifestPath != "" {
		if err := applyManifest(ctx, db, cfg.Bootstrap.ManifestPath); err != nil {
			return fmt.Errorf("failed to apply bootstrap manifest: %w", err)
		}
	}

	// Maintenance scheduler
	var scheduler *maintenance.Scheduler
	if cfg.Maintenance.Enabled {
		scheduler = maintenance.NewScheduler(log.Default())
		if cfg.Maintenance.SnapshotSchedule != "" {
			if err := scheduler.RegisterTask(maintenance.NewSnapshotTask(db, cfg.Maintenance.SnapshotSchedule, log.Default())); err != nil {
				return fmt.Errorf("failed to register snapshot task: %w", err)
			}
		}
		if cfg.Maintenance.CompactSchedule != "" {
			if err := scheduler.RegisterTask(maintenance.NewCompactTask(db, cfg.CompactThreshold(), cfg.Maintenance.CompactSchedule, log.Default())); err != nil {
				return fmt.Errorf("failed to register compact task: %w", err)
			}
		}
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start maintenance scheduler: %w", err)
		}
		defer scheduler.Stop()
	}

	// Start the gateway
	gw := gateway.New(db, cfg, scheduler, log.Default())
	log.Printf("Starting pinecone gateway on port %d", cfg.Port)
	if err := gw.Start(ctx); err != nil {
		return fmt.Errorf("gateway failed: %w", err)
	}

	log.Println("Gateway stopped gracefully")
	return nil
}

// applyManifest creates the indexes a bootstrap manifest declares. Indexes
// that already exist (restored from a snapshot) are left untouched.
func applyManifest(ctx context.Context, db *pinecone.DB, path string) error {
	manifest, err := config.LoadManifest(path)
	if err != nil {
		return err
	}

	for _, mi := range manifest.Indexes {
		_, err := db.CreateIndex(ctx, mi.Name, mi.Dimension, index.Metric(mi.Metric))
		if errors.Is(err, pinecone.ErrAlreadyExists) {
			log.Printf("Bootstrap index %q already exists, skipping", mi.Name)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create bootstrap index %q: %w", mi.Name, err)
		}
		log.Printf("Created bootstrap index %q (dimension=%d, metric=%s)", mi.Name, mi.Dimension, mi.Metric)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
