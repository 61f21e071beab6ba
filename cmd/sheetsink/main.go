package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dataloom-io/sheetsink/internal/pipeline"
	"github.com/dataloom-io/sheetsink/pkg/awsclient"
	"github.com/dataloom-io/sheetsink/pkg/config"
	"github.com/dataloom-io/sheetsink/pkg/importer"
	"github.com/dataloom-io/sheetsink/pkg/logger"
	"github.com/dataloom-io/sheetsink/pkg/observability"
	"github.com/dataloom-io/sheetsink/pkg/sheet"
	ddbstore "github.com/dataloom-io/sheetsink/pkg/store/dynamodb"
	s3fetch "github.com/dataloom-io/sheetsink/pkg/storage/s3"
	"github.com/dataloom-io/sheetsink/pkg/trigger"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "sheetsink",
		Short: "sheetsink - spreadsheet to key-value table importer",
		Long: `sheetsink imports user spreadsheets dropped into an object storage bucket
into a key-value table. Each object-created notification triggers one import:
the spreadsheet is fetched, its rows validated against a fixed schema, and
the valid rows written as upserts in bounded batches.`,
	}

	var configFile string
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML configuration file")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sheetsink v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newRunCmd(&configFile))
	root.AddCommand(newListenCmd(&configFile))
	root.AddCommand(newCheckCmd(&configFile))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRunCmd processes a single trigger event document.
func newRunCmd(configFile *string) *cobra.Command {
	var eventFile, table, bucket string
	var strict bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process one object-created trigger event",
		Long: `Process a single trigger event document. The event JSON is read from the
file given with --event, or from stdin when the path is "-".

The handler is fire-and-forget: pipeline failures are logged and suppressed
so the invocation never looks failed to its host. Pass --strict to exit
non-zero on pipeline failure instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(*configFile, table, bucket)
			if err != nil {
				return err
			}

			data, err := readEvent(eventFile)
			if err != nil {
				return fmt.Errorf("failed to read event: %w", err)
			}

			event, err := trigger.ParseEvent(data)
			if err != nil {
				return fmt.Errorf("failed to parse event: %w", err)
			}

			ctx := cmd.Context()
			imp, err := buildImporter(ctx, cfg)
			if err != nil {
				return err
			}

			result := imp.Run(ctx, event)
			_ = observability.Shutdown(ctx)
			_ = logger.Sync()

			if strict && result.Failed() {
				return fmt.Errorf("import failed at stage %s: %w", result.Stage, result.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&eventFile, "event", "e", "", "Path to trigger event JSON file, or - for stdin (required)")
	cmd.Flags().StringVar(&table, "table", "", "Destination table name (overrides config)")
	cmd.Flags().StringVar(&bucket, "bucket", "", "Restrict processing to this source bucket (overrides config)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when the pipeline fails")
	_ = cmd.MarkFlagRequired("event")

	return cmd
}

// newListenCmd polls a notification queue and runs one import per event.
func newListenCmd(configFile *string) *cobra.Command {
	var queueURL, table, bucket string

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Poll the notification queue and import each spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(*configFile, table, bucket)
			if err != nil {
				return err
			}
			if queueURL != "" {
				cfg.Queue.URL = queueURL
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			imp, err := buildImporter(ctx, cfg)
			if err != nil {
				return err
			}

			sqsClient, err := awsclient.NewSQS(ctx, cfg.Source.Region)
			if err != nil {
				return err
			}

			consumer, err := trigger.NewConsumer(sqsClient, cfg.Queue, logger.Get())
			if err != nil {
				return err
			}

			if cfg.Observability.EnableMetrics {
				go serveMetrics(cfg.Observability.MetricsAddr)
			}

			err = consumer.Run(ctx, func(ctx context.Context, event *trigger.Event) {
				// Fire-and-forget: the result is logged by the
				// pipeline and otherwise discarded.
				imp.Run(ctx, event)
			})

			_ = observability.Shutdown(context.Background())
			_ = logger.Sync()

			if err == context.Canceled {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&queueURL, "queue-url", "q", "", "SQS queue URL (overrides config)")
	cmd.Flags().StringVar(&table, "table", "", "Destination table name (overrides config)")
	cmd.Flags().StringVar(&bucket, "bucket", "", "Restrict processing to this source bucket (overrides config)")

	return cmd
}

// newCheckCmd validates a local spreadsheet without touching AWS.
func newCheckCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a local spreadsheet without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}

			rows, err := sheet.Rows(data)
			if err != nil {
				return fmt.Errorf("failed to decode spreadsheet: %w", err)
			}
			if len(rows) == 0 {
				fmt.Println("Sheet is empty: no data rows after the header.")
				return nil
			}

			users, diagnostics := importer.ValidateAll(rows)
			fmt.Printf("Rows read:    %d\n", len(rows))
			fmt.Printf("Rows valid:   %d\n", len(users))
			fmt.Printf("Rows skipped: %d\n", len(diagnostics))
			for _, diag := range diagnostics {
				fmt.Printf("  %s\n", diag)
			}
			return nil
		},
	}
	return cmd
}

// setup loads configuration, applies overrides, and initializes logging and
// tracing.
func setup(configFile, table, bucket string) (*config.Config, error) {
	cfg := config.NewConfig()
	if configFile != "" {
		if err := config.Load(configFile, cfg); err != nil {
			return nil, err
		}
	}
	if table != "" {
		cfg.Store.Table = table
	}
	if bucket != "" {
		cfg.Source.Bucket = bucket
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:    cfg.Observability.LogLevel,
		Encoding: cfg.Observability.LogEncoding,
	}); err != nil {
		return nil, err
	}

	if cfg.Observability.EnableTracing {
		if err := observability.Initialize(observability.TracingConfig{
			ServiceName:    "sheetsink",
			ServiceVersion: version,
			SamplingRate:   cfg.Observability.TracingSampleRate,
		}); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// buildImporter wires the process-wide AWS clients into an importer.
func buildImporter(ctx context.Context, cfg *config.Config) (*pipeline.Importer, error) {
	s3Client, err := awsclient.NewS3(ctx, cfg.Source.Region)
	if err != nil {
		return nil, err
	}

	ddbClient, err := awsclient.NewDynamoDB(ctx, cfg.Store.Region, cfg.Store.Endpoint)
	if err != nil {
		return nil, err
	}

	log := logger.Get()
	fetcher := s3fetch.NewFetcher(s3Client, cfg.Timeouts.Fetch, log)
	writer, err := ddbstore.NewWriter(ddbClient, cfg.Store, cfg.Pipeline, cfg.Timeouts.Write, log)
	if err != nil {
		return nil, err
	}

	return pipeline.NewImporter(fetcher, writer, cfg, log), nil
}

// readEvent reads the trigger event document from a file or stdin.
func readEvent(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// serveMetrics exposes the Prometheus registry. Errors are logged, not
// fatal: the importer works without the metrics endpoint.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("metrics server listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}
