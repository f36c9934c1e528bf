package pipeline

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"refcommission/internal"
	"refcommission/internal/util"
)

// ExportToXLSX renders the result as a single-sheet workbook: a header row,
// then one row per output record with the commission as the last column.
func ExportToXLSX(result internal.CommissionResult, sheetName string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheetName != "" && sheetName != sheet {
		if err := f.SetSheetName(sheet, sheetName); err != nil {
			return nil, err
		}
		sheet = sheetName
	}

	for i, h := range result.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	styles := numFmtStyles{f: f, ids: map[numFmtKey]int{}}
	for i, row := range result.Rows {
		r := i + 2
		set := func(col int, value any) (string, error) {
			ref, _ := excelize.CoordinatesToCellName(col, r)
			return ref, f.SetCellValue(sheet, ref, value)
		}

		for c, cell := range row.Cells {
			if !cell.Present {
				continue
			}
			value := cellValue(cell)
			ref, err := set(c+1, value)
			if err != nil {
				return nil, err
			}
			if _, numeric := value.(float64); !numeric || !cell.Formatted() {
				continue
			}
			styleID, err := styles.id(cell)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellStyle(sheet, ref, ref, styleID); err != nil {
				return nil, err
			}
		}
		if _, err := set(len(row.Cells)+1, row.Commission.InexactFloat64()); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ExportToXLSXFile(result internal.CommissionResult, sheetName, outputPath string) error {
	blob, err := ExportToXLSX(result, sheetName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, blob, 0o644)
}

// PreviewRows renders at most limit rows as display strings, commission last.
// Missing cells render as "" and formatted numbers, dates included, as
// the source sheet displayed them.
func PreviewRows(result internal.CommissionResult, limit int) [][]string {
	if limit < 0 || limit > len(result.Rows) {
		limit = len(result.Rows)
	}
	out := make([][]string, 0, limit)
	for _, row := range result.Rows[:limit] {
		values := make([]string, 0, len(row.Cells)+1)
		for _, cell := range row.Cells {
			values = append(values, cell.Text())
		}
		values = append(values, row.Commission.String())
		out = append(out, values)
	}
	return out
}

// cellValue writes numbers only for cells the source stored as numbers.
// Cells of unknown kind become numbers when the text is the canonical form
// of one, so "1.50" and long digit identifiers stay text.
func cellValue(cell internal.Cell) any {
	switch cell.Kind {
	case internal.KindNumber:
		if v, err := strconv.ParseFloat(cell.Raw, 64); err == nil {
			return v
		}
	case internal.KindBool:
		return cell.Raw == "1" || strings.EqualFold(cell.Raw, "true")
	case internal.KindUnknown:
		if v, ok := util.CanonicalNumber(cell.Raw); ok {
			return v
		}
	}
	return cell.Raw
}

type numFmtKey struct {
	id   int
	code string
}

// numFmtStyles creates one output style per distinct source number format.
type numFmtStyles struct {
	f   *excelize.File
	ids map[numFmtKey]int
}

func (s numFmtStyles) id(cell internal.Cell) (int, error) {
	key := numFmtKey{id: cell.NumFmt, code: cell.NumFmtCode}
	if id, ok := s.ids[key]; ok {
		return id, nil
	}

	style := &excelize.Style{NumFmt: cell.NumFmt}
	if cell.NumFmtCode != "" {
		code := cell.NumFmtCode
		style = &excelize.Style{CustomNumFmt: &code}
	}
	id, err := s.f.NewStyle(style)
	if err != nil {
		return 0, err
	}
	s.ids[key] = id
	return id, nil
}
