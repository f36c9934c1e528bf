package pipeline

import (
	"refcommission/internal"
	"refcommission/internal/util"
)

// NormalizeHeaders returns a copy of t whose headers are trimmed and
// lowercased. Rows are shared with t; they are never mutated downstream.
func NormalizeHeaders(t internal.Table) internal.Table {
	headers := make([]string, 0, len(t.Headers))
	for _, h := range t.Headers {
		headers = append(headers, util.NormalizeHeader(h))
	}
	return internal.Table{Name: t.Name, Headers: headers, Rows: t.Rows}
}
