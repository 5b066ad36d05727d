package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// fromXLSX walks every sheet and concatenates cell values row by row.
// Addresses in spreadsheets are usually whole-cell, but the preprocessing
// still runs so glued or obfuscated cells are repaired too.
func fromXLSX(name string, data []byte, opt Options) (Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("open xlsx %s: %w", name, err)
	}
	defer f.Close()

	out := Result{Stats: Stats{}}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			out.Stats["xlsx_sheet_errors"]++
			continue
		}
		var b strings.Builder
		for _, row := range rows {
			b.WriteString(strings.Join(row, " "))
			b.WriteByte('\n')
		}
		res := FromText(b.String(), name+"|"+sheet, opt)
		out.Hits = append(out.Hits, res.Hits...)
		out.Stats.Merge(res.Stats)
	}
	out.Hits = dedupeHits(out.Hits)
	return out, nil
}
