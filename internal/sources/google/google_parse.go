package google

import (
	"strings"

	"kpiboard/internal/core"
)

// parseRows converts a values matrix (as returned by Sheets API) into records.
// The first row names the fields; blank header cells drop their column and
// rows without any non-empty cell are skipped. Short rows simply omit the
// trailing fields, which the aggregator then treats as absent.
func parseRows(values [][]interface{}) []core.Record {
	if len(values) == 0 {
		return nil
	}
	headers := toStrings(values[0])
	out := make([]core.Record, 0, len(values)-1)
	for _, row := range values[1:] {
		rec := core.Record{}
		for i, cell := range row {
			if i >= len(headers) || headers[i] == "" || isBlank(cell) {
				continue
			}
			rec[headers[i]] = cell
		}
		if len(rec) == 0 {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func isBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
