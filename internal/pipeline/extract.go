package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	"refcommission/internal"
)

var (
	xlsxMagic = []byte("PK\x03\x04")
	xlsMagic  = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// ReadTable decodes an uploaded .xlsx or .xls file into a table. The first
// row is the header row. The format is chosen from the file signature, not
// the name. A decoder panic on malformed bytes is reported as an
// InputFormatError.
func ReadTable(input internal.SpreadsheetInput) (table internal.Table, err error) {
	name := input.Name
	if strings.TrimSpace(name) == "" {
		name = "input"
	}

	defer func() {
		if r := recover(); r != nil {
			table = internal.Table{}
			err = &InputFormatError{Name: name, Err: fmt.Errorf("%v", r)}
		}
	}()

	var rows [][]internal.Cell
	switch {
	case len(input.Content) == 0:
		err = errors.New("file is empty")
	case bytes.HasPrefix(input.Content, xlsxMagic):
		rows, err = parseXLSX(input.Content, input.Sheet)
	case bytes.HasPrefix(input.Content, xlsMagic):
		rows, err = parseXLS(input.Content, input.Sheet)
	default:
		err = errors.New("unrecognized file signature, expected .xlsx or .xls")
	}
	if err != nil {
		return internal.Table{}, &InputFormatError{Name: name, Err: err}
	}

	table, err = buildTable(name, rows)
	if err != nil {
		return internal.Table{}, &InputFormatError{Name: name, Err: err}
	}
	return table, nil
}

func parseXLSX(content []byte, sheet string) ([][]internal.Cell, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	out := make([][]internal.Cell, len(rows))
	for r, row := range rows {
		cells := make([]internal.Cell, len(row))
		for c, raw := range row {
			if r == 0 || raw == "" {
				cells[c] = internal.TextCell(raw)
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			if cells[c], err = typedXLSXCell(f, sheet, ref, raw); err != nil {
				return nil, err
			}
		}
		out[r] = cells
	}
	return out, nil
}

// typedXLSXCell records the stored type of a non-empty cell. Numeric cells
// also keep their number format and the text it renders, so date cells
// survive as dates instead of serial numbers.
func typedXLSXCell(f *excelize.File, sheet, ref, raw string) (internal.Cell, error) {
	cell := internal.TextCell(raw)
	cellType, err := f.GetCellType(sheet, ref)
	if err != nil {
		return cell, err
	}

	switch cellType {
	case excelize.CellTypeBool:
		cell.Kind = internal.KindBool
		return cell, nil
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return cell, nil
		}
		cell.Kind = internal.KindNumber
	default:
		return cell, nil
	}

	// A number format that cannot be resolved leaves the cell unformatted.
	styleID, err := f.GetCellStyle(sheet, ref)
	if err != nil || styleID == 0 {
		return cell, nil
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		return cell, nil
	}
	if style.CustomNumFmt != nil {
		cell.NumFmtCode = *style.CustomNumFmt
	} else {
		cell.NumFmt = style.NumFmt
	}
	if !cell.Formatted() {
		return cell, nil
	}

	display, err := f.GetCellValue(sheet, ref)
	if err != nil {
		return cell, nil
	}
	cell.Display = display
	return cell, nil
}

// parseXLS reads legacy BIFF workbooks. The reader returns display
// strings only, so cells come back with an unknown kind.
func parseXLS(content []byte, sheet string) ([][]internal.Cell, error) {
	book, err := xls.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	index := 0
	if sheet != "" {
		index = -1
		for i, s := range book.GetSheets() {
			if s.GetName() == sheet {
				index = i
				break
			}
		}
		if index < 0 {
			return nil, fmt.Errorf("sheet %q not found", sheet)
		}
	}

	xlsSheet, err := book.GetSheet(index)
	if err != nil || xlsSheet == nil {
		return nil, errors.New("no sheets found")
	}

	rows := [][]internal.Cell{}
	for _, xlsRow := range xlsSheet.GetRows() {
		var cells []internal.Cell
		for _, col := range xlsRow.GetCols() {
			cells = append(cells, internal.RawCell(col.GetString()))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// buildTable takes the first row as headers. Blank headers become
// "Unnamed: <index>", repeated headers get ".1", ".2" suffixes and every
// data row is padded to the widest row. Rows with no present cell are
// dropped.
func buildTable(name string, rows [][]internal.Cell) (internal.Table, error) {
	if len(rows) == 0 {
		return internal.Table{}, errors.New("sheet has no header row")
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return internal.Table{}, errors.New("sheet has no header row")
	}

	headers := make([]string, width)
	for i := range headers {
		if i < len(rows[0]) && rows[0][i].Raw != "" {
			headers[i] = rows[0][i].Raw
			continue
		}
		headers[i] = fmt.Sprintf("Unnamed: %d", i)
	}

	data := make([][]internal.Cell, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cells := make([]internal.Cell, width)
		present := false
		for i := 0; i < width && i < len(row); i++ {
			cells[i] = row[i]
			present = present || cells[i].Present
		}
		if !present {
			continue
		}
		data = append(data, cells)
	}

	return internal.Table{Name: name, Headers: dedupeHeaders(headers), Rows: data}, nil
}

// dedupeHeaders renames repeated names the way pandas does on read: the
// second "rates" becomes "rates.1", skipping names already taken.
func dedupeHeaders(headers []string) []string {
	counts := make(map[string]int, len(headers))
	out := make([]string, len(headers))
	for i, h := range headers {
		n := counts[h]
		for n > 0 {
			counts[h] = n + 1
			h = fmt.Sprintf("%s.%d", h, n)
			n = counts[h]
		}
		out[i] = h
		counts[h] = n + 1
	}
	return out
}
