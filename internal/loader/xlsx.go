package loader

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readWorkbook returns the rows of the first sheet that has a non-empty row.
func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		for _, row := range rows {
			if !isBlankRow(row) {
				return rows, nil
			}
		}
	}

	return nil, nil
}
