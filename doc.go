// Package sheetsink ingests user spreadsheets from object storage into a
// key-value table.
//
// An object-created notification names an uploaded .xlsx workbook; sheetsink
// fetches it, validates each row against a fixed user schema (userId, name,
// email, optional profileImageUrl), and writes the valid rows to the
// destination table as puts in batches of at most 25 items. Invalid rows are
// skipped with a per-row diagnostic; they never stop the import.
//
// # Architecture
//
// One invocation is a linear pipeline:
//
//	trigger → fetch → decode → validate → write
//
// The stages live in internal/pipeline, with the collaborators behind small
// interfaces so the pipeline can be exercised without AWS:
//
//	pkg/trigger        - notification envelope parsing and the SQS consumer
//	pkg/storage/s3     - whole-object reads from the source bucket
//	pkg/sheet          - xlsx decoding into raw rows
//	pkg/importer       - row validation and batch partitioning
//	pkg/store/dynamodb - bounded batch writes, upsert-by-key on userId
//
// Supporting packages:
//
//	pkg/config        - unified YAML configuration with ${VAR} substitution
//	pkg/logger        - structured logging (zap)
//	pkg/errors        - typed errors with context details
//	pkg/metrics       - Prometheus counters and histograms
//	pkg/observability - OpenTelemetry span helpers
//
// # Quick Start
//
// Run one import from a notification event on stdin:
//
//	sheetsink run --config config.yaml --event -
//
// Poll a queue continuously:
//
//	sheetsink listen --config config.yaml --queue-url $QUEUE_URL
//
// Validate a local workbook without writing anything:
//
//	sheetsink check users.xlsx
//
// # Semantics
//
// Writes are puts keyed on userId, so replaying the same spreadsheet
// overwrites rather than duplicates. Batch writes are dispatched strictly
// sequentially; when one fails, earlier batches stay committed and later
// batches are never sent. A run reports an explicit result with row counts,
// per-row diagnostics, and the failed batch index when there is one.
package sheetsink
