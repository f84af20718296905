package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes the same table WriteCSV would, as a single-sheet workbook.
func WriteXLSX(w io.Writer, sheet string, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	put := func(n int, fields []string) error {
		cell, err := excelize.CoordinatesToCellName(1, n)
		if err != nil {
			return err
		}
		vals := make([]interface{}, len(fields))
		for i, v := range fields {
			vals[i] = v
		}
		return f.SetSheetRow(sheet, cell, &vals)
	}

	if err := put(1, header); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}
	for i, r := range rows {
		if err := put(i+2, r); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+1, err)
		}
	}
	return f.Write(w)
}
