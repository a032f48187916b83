// Package main is the entry point for the email composer CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/shineum/email-composer/internal/composer"
	"github.com/shineum/email-composer/internal/config"
	"github.com/shineum/email-composer/internal/datauri"
	"github.com/shineum/email-composer/internal/email"
	"github.com/shineum/email-composer/internal/exporter"
	"github.com/shineum/email-composer/internal/exporter/file"
	"github.com/shineum/email-composer/internal/exporter/graph"
	"github.com/shineum/email-composer/internal/exporter/s3"
	"github.com/shineum/email-composer/internal/exporter/stdout"
	"github.com/shineum/email-composer/internal/recipe"
)

// options holds the command line flags.
type options struct {
	configPath string
	recipePath string
	formats    string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to YAML configuration file (optional)")
	flag.StringVar(&opts.recipePath, "recipe", "", "path to YAML recipe to replay (optional)")
	flag.StringVar(&opts.formats, "format", "", "comma separated export formats: html, json (default: recipe's list, else both)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		slog.Info("received signal, cancelling", "signal", sig)
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		slog.Error("email-composer failed", "error", err)
		os.Exit(1)
	}
}

// run loads configuration, replays the recipe if one is given and exports
// the resulting document.
func run(ctx context.Context, opts options) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	setupLogger(cfg.Logging.Level)

	var r *recipe.Recipe
	baseDir := ""
	if opts.recipePath != "" {
		r, err = recipe.LoadFile(opts.recipePath)
		if err != nil {
			return err
		}
		baseDir = filepath.Dir(opts.recipePath)
	}

	formats, err := selectFormats(opts.formats, r)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	exp, err := selectExporter(ctx, cfg, runID)
	if err != nil {
		return err
	}

	slog.Info("starting email-composer",
		"exporter", exp.Name(),
		"run_id", runID,
		"recipe", opts.recipePath,
		"formats", strings.Join(formats, ","),
	)

	session := composer.NewSession(email.NewDocument(), datauri.NewFileDecoder(cfg.Image.MaxSize), exp)

	if r != nil {
		if err := r.Apply(ctx, session, baseDir); err != nil {
			return fmt.Errorf("failed to apply recipe: %w", err)
		}
	}

	return recipe.Export(ctx, session, formats)
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output on stderr,
// leaving stdout to the stdout exporter.
func setupLogger(level string) {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// selectFormats picks the export formats: the -format flag, else the
// recipe's export list, else html and json.
func selectFormats(flagValue string, r *recipe.Recipe) ([]string, error) {
	if flagValue == "" {
		if r != nil {
			return r.Formats(), nil
		}
		return []string{recipe.FormatHTML, recipe.FormatJSON}, nil
	}

	var formats []string
	for _, f := range strings.Split(flagValue, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		switch f {
		case "":
			continue
		case recipe.FormatHTML, recipe.FormatJSON:
			formats = append(formats, f)
		default:
			return nil, fmt.Errorf("unknown export format %q", f)
		}
	}
	if len(formats) == 0 {
		return nil, errors.New("no export format given")
	}
	return formats, nil
}

// selectExporter chooses the export backend based on configuration.
// If EXPORTER is set, it takes precedence. Otherwise the first configured
// backend wins: Graph, then S3, then a local directory, then stdout.
func selectExporter(ctx context.Context, cfg *config.Config, runID string) (exporter.Exporter, error) {
	switch cfg.Exporter {
	case "graph", "msgraph":
		if !cfg.GraphConfigured() {
			return nil, errors.New("graph exporter selected but GRAPH_TENANT_ID, GRAPH_CLIENT_ID, GRAPH_CLIENT_SECRET, and GRAPH_USER are required")
		}
		return newGraphExporter(cfg, runID)

	case "s3":
		if !cfg.S3Configured() {
			return nil, errors.New("s3 exporter selected but S3_REGION and S3_BUCKET are required")
		}
		return newS3Exporter(ctx, cfg, runID)

	case "file":
		if cfg.File.Dir == "" {
			return nil, errors.New("file exporter selected but EXPORT_DIR is required")
		}
		return newFileExporter(cfg)

	case "stdout":
		slog.Info("using stdout exporter")
		return stdout.New(), nil

	case "":
		if cfg.GraphConfigured() {
			return newGraphExporter(cfg, runID)
		}
		if cfg.S3Configured() {
			return newS3Exporter(ctx, cfg, runID)
		}
		if cfg.File.Dir != "" {
			return newFileExporter(cfg)
		}
		slog.Info("no exporter configured, using stdout exporter")
		return stdout.New(), nil

	default:
		return nil, fmt.Errorf("unknown exporter %q", cfg.Exporter)
	}
}

func newGraphExporter(cfg *config.Config, runID string) (exporter.Exporter, error) {
	slog.Info("using Microsoft Graph exporter",
		"user", cfg.Graph.User,
		"folder", cfg.Graph.Folder,
	)
	e, err := graph.New(graph.Config{
		TenantID:     cfg.Graph.TenantID,
		ClientID:     cfg.Graph.ClientID,
		ClientSecret: cfg.Graph.ClientSecret,
		User:         cfg.Graph.User,
		Folder:       cfg.Graph.Folder,
		RunID:        runID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Graph exporter: %w", err)
	}
	return e, nil
}

func newS3Exporter(ctx context.Context, cfg *config.Config, runID string) (exporter.Exporter, error) {
	slog.Info("using S3 exporter",
		"region", cfg.S3.Region,
		"bucket", cfg.S3.Bucket,
		"prefix", cfg.S3.Prefix,
	)
	e, err := s3.New(ctx, s3.Config{
		Region:          cfg.S3.Region,
		Bucket:          cfg.S3.Bucket,
		Prefix:          cfg.S3.Prefix,
		Endpoint:        cfg.S3.Endpoint,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		ForcePathStyle:  cfg.S3.ForcePathStyle,
		RunID:           runID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 exporter: %w", err)
	}
	return e, nil
}

func newFileExporter(cfg *config.Config) (exporter.Exporter, error) {
	slog.Info("using file exporter", "dir", cfg.File.Dir)
	e, err := file.New(cfg.File.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create file exporter: %w", err)
	}
	return e, nil
}
