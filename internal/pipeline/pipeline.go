// Package pipeline orchestrates one import invocation: resolve the trigger,
// fetch the spreadsheet, decode and validate its rows, and write the valid
// rows to the store in bounded batches.
//
// The run is a linear state machine with no way back:
//
//	trigger → fetch → decode → validate → write → done
//
// Any step's failure ends the run at that stage. Row validation is the one
// non-fatal step: invalid rows become diagnostics and the rest proceed.
// Batch writes are dispatched strictly sequentially; when a write fails, the
// batches already written stay committed and no further batch is attempted.
package pipeline

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/dataloom-io/sheetsink/pkg/config"
	"github.com/dataloom-io/sheetsink/pkg/importer"
	"github.com/dataloom-io/sheetsink/pkg/metrics"
	"github.com/dataloom-io/sheetsink/pkg/observability"
	"github.com/dataloom-io/sheetsink/pkg/sheet"
	"github.com/dataloom-io/sheetsink/pkg/trigger"
)

// ObjectFetcher reads a whole object from the source bucket.
type ObjectFetcher interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// BatchWriter writes one batch of items to the store. The call either
// succeeds as a whole or returns an error.
type BatchWriter interface {
	WriteBatch(ctx context.Context, items []importer.WriteItem) error
}

// Importer runs import invocations. One instance is shared across
// invocations; the injected collaborators are the process-wide clients.
type Importer struct {
	fetcher ObjectFetcher
	writer  BatchWriter
	cfg     *config.Config
	logger  *zap.Logger
}

// NewImporter creates an importer around the given collaborators.
func NewImporter(fetcher ObjectFetcher, writer BatchWriter, cfg *config.Config, logger *zap.Logger) *Importer {
	return &Importer{
		fetcher: fetcher,
		writer:  writer,
		cfg:     cfg,
		logger:  logger,
	}
}

// Run executes one invocation for the given trigger event and returns an
// explicit Result. Run itself never panics outward and never retries; the
// caller decides what a failure means.
func (im *Importer) Run(ctx context.Context, event *trigger.Event) Result {
	timer := metrics.NewTimer()
	result := im.run(ctx, event)
	duration := timer.ObserveSeconds(metrics.InvocationDuration)
	metrics.Invocations.WithLabelValues(result.Outcome()).Inc()

	im.logger.Info("invocation finished",
		zap.String("outcome", result.Outcome()),
		zap.String("stage", string(result.Stage)),
		zap.Int("rows_read", result.RowsRead),
		zap.Int("rows_valid", result.RowsValid),
		zap.Int("rows_skipped", result.RowsSkipped),
		zap.Int("batches_written", result.BatchesWritten),
		zap.Int("items_written", result.ItemsWritten),
		zap.Duration("duration", duration))

	return result
}

func (im *Importer) run(ctx context.Context, event *trigger.Event) Result {
	if im.cfg.Timeouts.Invocation > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, im.cfg.Timeouts.Invocation)
		defer cancel()
	}

	ctx, span := observability.StartSpan(ctx, "import.run")
	result := Result{FailedBatch: -1, Stage: StageDone}

	ref, err := event.First()
	if err != nil {
		im.logger.Error("invalid trigger event", zap.Error(err))
		result.Stage, result.Err = StageTrigger, err
		observability.EndSpan(span, err)
		return result
	}
	span.SetAttributes(
		attribute.String("bucket", ref.Bucket),
		attribute.String("key", ref.Key),
	)

	logger := im.logger.With(
		zap.String("bucket", ref.Bucket),
		zap.String("key", ref.Key),
	)

	// Deployment pins the importer to one bucket; events for any other
	// bucket are ignored rather than failed.
	if im.cfg.Source.Bucket != "" && ref.Bucket != im.cfg.Source.Bucket {
		logger.Warn("ignoring event for foreign bucket",
			zap.String("expected", im.cfg.Source.Bucket))
		result.Stage, result.Reason = StageTrigger, "foreign bucket"
		observability.EndSpan(span, nil)
		return result
	}

	data, err := im.fetch(ctx, ref)
	if err != nil {
		logger.Error("failed to fetch object", zap.Error(err))
		result.Stage, result.Err = StageFetch, err
		observability.EndSpan(span, err)
		return result
	}

	rows, err := im.decode(ctx, data)
	if err != nil {
		logger.Error("failed to decode spreadsheet", zap.Error(err))
		result.Stage, result.Err = StageDecode, err
		observability.EndSpan(span, err)
		return result
	}
	result.RowsRead = len(rows)

	if len(rows) == 0 {
		logger.Error("spreadsheet has no data rows")
		result.Stage, result.Reason = StageDecode, "sheet is empty"
		observability.EndSpan(span, nil)
		return result
	}

	users, diagnostics := importer.ValidateAll(rows)
	result.RowsValid = len(users)
	result.RowsSkipped = len(diagnostics)
	result.SkippedRows = diagnostics
	metrics.RowsProcessed.WithLabelValues("valid").Add(float64(len(users)))
	metrics.RowsProcessed.WithLabelValues("invalid").Add(float64(len(diagnostics)))

	if len(users) == 0 {
		// Every row failed validation: nothing is written, but the
		// diagnostics are surfaced in full rather than discarded.
		logger.Warn("no valid rows to upload",
			zap.Int("rows_skipped", len(diagnostics)),
			zap.Strings("skipped_rows", diagnostics))
		result.Stage, result.Reason = StageValidate, "no valid rows"
		observability.EndSpan(span, nil)
		return result
	}

	items := importer.Items(users)
	batches := importer.PartitionItems(items, im.cfg.Pipeline.BatchSize)

	if err := im.write(ctx, batches, &result, logger); err != nil {
		logger.Error("batch write failed",
			zap.Int("failed_batch", result.FailedBatch),
			zap.Int("items_committed", result.ItemsWritten),
			zap.Error(err))
		result.Stage, result.Err = StageWrite, err
		observability.EndSpan(span, err)
		return result
	}

	logger.Info("uploaded records", zap.Int("count", result.ItemsWritten))
	if len(diagnostics) > 0 {
		logger.Warn("skipped invalid rows",
			zap.Int("count", len(diagnostics)),
			zap.Strings("skipped_rows", diagnostics))
	}

	observability.EndSpan(span, nil)
	return result
}

func (im *Importer) fetch(ctx context.Context, ref trigger.ObjectRef) ([]byte, error) {
	ctx, span := observability.StartSpan(ctx, "import.fetch")
	data, err := im.fetcher.Fetch(ctx, ref.Bucket, ref.Key)
	observability.EndSpan(span, err)
	return data, err
}

func (im *Importer) decode(ctx context.Context, data []byte) ([]importer.RawRow, error) {
	_, span := observability.StartSpan(ctx, "import.decode",
		attribute.Int("bytes", len(data)))
	rows, err := sheet.Rows(data)
	observability.EndSpan(span, err)
	return rows, err
}

// write dispatches batches strictly sequentially, each call awaited before
// the next begins. On failure it records which batch failed and stops;
// already committed batches are not rolled back.
func (im *Importer) write(ctx context.Context, batches [][]importer.WriteItem, result *Result, logger *zap.Logger) error {
	ctx, span := observability.StartSpan(ctx, "import.write",
		attribute.Int("batches", len(batches)))

	for i, batch := range batches {
		timer := metrics.NewTimer()
		err := im.writer.WriteBatch(ctx, batch)
		timer.ObserveSeconds(metrics.BatchWriteLatency)

		if err != nil {
			metrics.BatchWrites.WithLabelValues("failure").Inc()
			result.FailedBatch = i
			observability.EndSpan(span, err)
			return err
		}

		metrics.BatchWrites.WithLabelValues("success").Inc()
		metrics.ItemsWritten.Add(float64(len(batch)))
		result.BatchesWritten++
		result.ItemsWritten += len(batch)

		logger.Debug("batch written",
			zap.Int("batch", i),
			zap.Int("size", len(batch)))
	}

	observability.EndSpan(span, nil)
	return nil
}
