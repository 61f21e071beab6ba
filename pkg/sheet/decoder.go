// Package sheet decodes spreadsheet buffers into the typed rows consumed by
// the import pipeline. The whole workbook is decoded in memory; only the
// first sheet is read and exactly one header row is skipped.
package sheet

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"github.com/dataloom-io/sheetsink/pkg/errors"
	"github.com/dataloom-io/sheetsink/pkg/importer"
)

// Rows decodes an xlsx buffer and returns the data rows of the first sheet
// in order, header row excluded. Cells map positionally onto the fixed
// column order [userId, name, email, profileImageUrl]; columns the physical
// row does not reach come back as absent.
//
// A workbook with no sheets is an error. A sheet with no data rows yields an
// empty slice and no error; the caller decides what emptiness means.
func Rows(data []byte) ([]importer.RawRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDecode, "failed to open workbook")
	}
	defer func() {
		_ = f.Close()
	}()

	sheetNames := f.GetSheetList()
	if len(sheetNames) == 0 {
		return nil, errors.New(errors.ErrorTypeDecode, "workbook contains no sheets")
	}

	// First sheet only. Additional sheets are silently ignored.
	iter, err := f.Rows(sheetNames[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDecode, "failed to read sheet rows")
	}
	defer func() {
		_ = iter.Close()
	}()

	var (
		rows   []importer.RawRow
		header = true
	)

	for iter.Next() {
		cells, err := iter.Columns()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeDecode, "failed to read row cells")
		}

		if header {
			header = false
			continue
		}

		rows = append(rows, toRawRow(cells))
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDecode, "failed to iterate sheet rows")
	}

	return rows, nil
}

// toRawRow maps one physical row onto the fixed column layout. A cell beyond
// the end of the physical row is absent (nil), a blank cell within it is an
// empty string; validation treats both as missing.
func toRawRow(cells []string) importer.RawRow {
	return importer.RawRow{
		UserID:          cellAt(cells, 0),
		Name:            cellAt(cells, 1),
		Email:           cellAt(cells, 2),
		ProfileImageURL: cellAt(cells, 3),
	}
}

func cellAt(cells []string, index int) *string {
	if index >= len(cells) {
		return nil
	}
	value := cells[index]
	return &value
}
