package pipeline

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"refcommission/internal"
)

func mkXLSX(rows [][]any) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func TestReadTableXLSX(t *testing.T) {
	blob := mkXLSX([][]any{
		{"Client_Code", "Payment_Mode", "Payee_Amount"},
		{"A1", "card", 200},
		{nil, nil, nil},
		{"B2", "upi", 15.5},
	})
	table, err := ReadTable(internal.SpreadsheetInput{Name: "txn.xlsx", Content: blob})
	if err != nil {
		t.Fatal(err)
	}
	if table.Name != "txn.xlsx" {
		t.Fatalf("name=%q", table.Name)
	}
	if len(table.Headers) != 3 || table.Headers[0] != "Client_Code" {
		t.Fatalf("headers=%v", table.Headers)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("len=%d", len(table.Rows))
	}
	if got := table.Rows[0][2].Raw; got != "200" {
		t.Fatalf("amount raw=%q", got)
	}
	if got := table.Rows[1][2].Raw; got != "15.5" {
		t.Fatalf("amount raw=%q", got)
	}
}

func TestReadTablePadsShortRowsAndNamesBlankHeaders(t *testing.T) {
	blob := mkXLSX([][]any{
		{"client", nil, "rates"},
		{"A1", "card", 5, "extra"},
		{"B2"},
	})
	table, err := ReadTable(internal.SpreadsheetInput{Name: "ref.xlsx", Content: blob})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"client", "Unnamed: 1", "rates", "Unnamed: 3"}
	for i, h := range want {
		if table.Headers[i] != h {
			t.Fatalf("headers=%v want %v", table.Headers, want)
		}
	}
	if len(table.Rows[1]) != 4 || table.Rows[1][1].Present || table.Rows[1][3].Present {
		t.Fatalf("short row not padded with missing cells: %+v", table.Rows[1])
	}
}

func TestReadTableNamedSheet(t *testing.T) {
	f := excelize.NewFile()
	_, _ = f.NewSheet("Rates")
	_ = f.SetCellValue("Rates", "A1", "client")
	_ = f.SetCellValue("Rates", "A2", "A1")
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	table, err := ReadTable(internal.SpreadsheetInput{Name: "ref.xlsx", Content: buf.Bytes(), Sheet: "Rates"})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 1 || table.Rows[0][0].Raw != "A1" {
		t.Fatalf("rows=%+v", table.Rows)
	}

	_, err = ReadTable(internal.SpreadsheetInput{Name: "ref.xlsx", Content: buf.Bytes(), Sheet: "Missing"})
	var formatErr *InputFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("err=%v", err)
	}
}

func TestReadTableRejectsGarbage(t *testing.T) {
	cases := map[string][]byte{
		"empty":      nil,
		"text":       []byte("client,payment mode\nA1,card\n"),
		"broken zip": []byte("PK\x03\x04not really a zip"),
		"no rows":    mkXLSX(nil),
		"ole header": append(append([]byte{}, xlsMagic...), make([]byte, 600)...),
		"broken ole": append(append([]byte{}, xlsMagic...), []byte("not a compound file")...),
	}

	for name, blob := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadTable(internal.SpreadsheetInput{Name: name, Content: blob})
			var formatErr *InputFormatError
			if !errors.As(err, &formatErr) {
				t.Fatalf("err=%v", err)
			}
			if formatErr.Name != name {
				t.Fatalf("name=%q", formatErr.Name)
			}
		})
	}
}

func TestReadTableRecordsCellKinds(t *testing.T) {
	blob := mkXLSX([][]any{
		{"client_code", "reference", "amount", "paid"},
		{"A1", "12345678901234567890", 200, true},
		{"B2", "1.50", 15.5, false},
	})
	table, err := ReadTable(internal.SpreadsheetInput{Name: "txn.xlsx", Content: blob})
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		row, col int
		raw      string
		kind     internal.CellKind
	}{
		{0, 1, "12345678901234567890", internal.KindText},
		{1, 1, "1.50", internal.KindText},
		{0, 2, "200", internal.KindNumber},
		{1, 2, "15.5", internal.KindNumber},
		{0, 3, "1", internal.KindBool},
		{1, 3, "0", internal.KindBool},
	}
	for _, tc := range cases {
		cell := table.Rows[tc.row][tc.col]
		if cell.Raw != tc.raw || cell.Kind != tc.kind {
			t.Fatalf("cell %d,%d=%+v want raw %q kind %d", tc.row, tc.col, cell, tc.raw, tc.kind)
		}
	}
}

func TestReadTableKeepsNumberFormats(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetCellValue(sheet, "A1", "client_code")
	_ = f.SetCellValue(sheet, "B1", "paid on")
	_ = f.SetCellValue(sheet, "C1", "booked")
	_ = f.SetCellValue(sheet, "A2", "A1")
	_ = f.SetCellValue(sheet, "B2", 45123)
	_ = f.SetCellValue(sheet, "C2", 45123)

	builtin, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		t.Fatal(err)
	}
	code := "yyyy-mm-dd"
	custom, err := f.NewStyle(&excelize.Style{CustomNumFmt: &code})
	if err != nil {
		t.Fatal(err)
	}
	_ = f.SetCellStyle(sheet, "B2", "B2", builtin)
	_ = f.SetCellStyle(sheet, "C2", "C2", custom)
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	table, err := ReadTable(internal.SpreadsheetInput{Name: "txn.xlsx", Content: buf.Bytes()})
	if err != nil {
		t.Fatal(err)
	}

	paid := table.Rows[0][1]
	if paid.Raw != "45123" || paid.Kind != internal.KindNumber || paid.NumFmt != 14 {
		t.Fatalf("paid on=%+v", paid)
	}
	if paid.Text() != "07-16-23" {
		t.Fatalf("paid on text=%q", paid.Text())
	}

	booked := table.Rows[0][2]
	if booked.Raw != "45123" || booked.NumFmtCode != code || booked.Text() != "2023-07-16" {
		t.Fatalf("booked=%+v", booked)
	}

	if client := table.Rows[0][0]; client.Formatted() || client.Text() != "A1" {
		t.Fatalf("client=%+v", client)
	}
}

func TestReadTableRenamesDuplicateHeaders(t *testing.T) {
	blob := mkXLSX([][]any{
		{"client", "rates", "rates", "rates.1", nil},
		{"A1", 1, 2, 3, 4},
	})
	table, err := ReadTable(internal.SpreadsheetInput{Name: "ref.xlsx", Content: blob})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"client", "rates", "rates.1", "rates.1.1", "Unnamed: 4"}
	if len(table.Headers) != len(want) {
		t.Fatalf("headers=%v want %v", table.Headers, want)
	}
	for i, h := range want {
		if table.Headers[i] != h {
			t.Fatalf("headers=%v want %v", table.Headers, want)
		}
	}
}

func TestDedupeHeaders(t *testing.T) {
	cases := []struct {
		in, want []string
	}{
		{[]string{"a", "b"}, []string{"a", "b"}},
		{[]string{"a", "a", "a"}, []string{"a", "a.1", "a.2"}},
		{[]string{"a", "a.1", "a"}, []string{"a", "a.1", "a.1.1"}},
		{[]string{"rates", "client", "rates"}, []string{"rates", "client", "rates.1"}},
	}
	for _, tc := range cases {
		got := dedupeHeaders(tc.in)
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Fatalf("dedupeHeaders(%v)=%v want %v", tc.in, got, tc.want)
			}
		}
	}
}
