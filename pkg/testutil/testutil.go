// Package testutil provides testing utilities for sheetsink
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// WorkbookBytes builds an in-memory xlsx buffer with one sheet containing
// the given rows. The first row is conventionally the header.
func WorkbookBytes(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	sheetName := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheetName, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// UserWorkbook builds an xlsx buffer with the standard import header and the
// given data rows.
func UserWorkbook(t *testing.T, dataRows ...[]interface{}) []byte {
	t.Helper()

	rows := [][]interface{}{
		{"userId", "name", "email", "profileImageUrl"},
	}
	rows = append(rows, dataRows...)
	return WorkbookBytes(t, rows)
}
