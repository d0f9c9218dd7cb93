// Package report persists delivery outcomes as tabular files next to the
// input spreadsheet, supporting manual follow-up after a run.
package report

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"certsender/internal/types"
)

const (
	// SentFile is written for successfully delivered recipients.
	SentFile = "SENT.xlsx"
	// NotSentFile is written for recipients that were skipped or failed.
	NotSentFile = "NOT_SENT.xlsx"
)

var header = []string{"NAME", "PHONE", "STATUS"}

// Write persists the two outcome sets into dir. A report file is written
// only when its outcome set is non-empty; the returned slice holds the paths
// actually written.
func Write(dir string, sent, notSent []types.Outcome) ([]string, error) {
	var written []string

	if len(sent) > 0 {
		path := filepath.Join(dir, SentFile)
		if err := writeOne(path, sent); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if len(notSent) > 0 {
		path := filepath.Join(dir, NotSentFile)
		if err := writeOne(path, notSent); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	return written, nil
}

func writeOne(path string, outcomes []types.Outcome) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for c, h := range header {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return fmt.Errorf("failed to build report header: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write report header: %w", err)
		}
	}

	for i, o := range outcomes {
		row := i + 2
		values := []string{o.Recipient.Display, o.Recipient.Phone, o.StatusTag()}
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, row)
			if err != nil {
				return fmt.Errorf("failed to build report cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write report row %d: %w", row, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report %s: %w", path, err)
	}
	return nil
}
