package internal

import "github.com/shopspring/decimal"

const CommissionColumn = "Referral_Commission"

// CellKind is the value type a workbook recorded for a cell.
type CellKind uint8

const (
	// KindUnknown marks cells from sources that do not record a type.
	KindUnknown CellKind = iota
	KindText
	KindNumber
	KindBool
)

// Cell is one spreadsheet cell. Present is false for an empty cell.
// Raw is the unformatted stored value. NumFmt/NumFmtCode keep the number
// format of a numeric cell so it can be written back, and Display holds
// the value as that format renders it.
type Cell struct {
	Raw        string
	Present    bool
	Kind       CellKind
	NumFmt     int
	NumFmtCode string
	Display    string
}

func TextCell(raw string) Cell {
	return Cell{Raw: raw, Present: raw != "", Kind: KindText}
}

// RawCell is a cell whose source did not say what type it holds.
func RawCell(raw string) Cell {
	return Cell{Raw: raw, Present: raw != ""}
}

func (c Cell) Formatted() bool {
	return c.NumFmt != 0 || c.NumFmtCode != ""
}

// Text is the value as a reader of the source sheet would see it.
func (c Cell) Text() string {
	if c.Display != "" {
		return c.Display
	}
	return c.Raw
}

// Table is a decoded sheet: a header row followed by data rows.
// Data rows are padded or truncated to len(Headers) on load.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]Cell
}

type RateType string

const (
	RatePercentage RateType = "percentage"
	RateFixed      RateType = "fixed"
	RateOther      RateType = "other"
)

type ReferralRecord struct {
	Row         int
	Client      Cell
	PaymentMode Cell
	RateType    *string
	Rate        *float64
}

type TransactionRecord struct {
	Row         int
	ClientCode  Cell
	PaymentMode Cell
	PayeeAmount *float64
}

// JoinedRow pairs a transaction with at most one referral. Referral is nil
// when the transaction key has no match.
type JoinedRow struct {
	Transaction TransactionRecord
	Referral    *ReferralRecord
}

type CommissionRow struct {
	Cells      []Cell
	Commission decimal.Decimal
}

type CommissionResult struct {
	RunID     string
	Headers   []string
	Rows      []CommissionRow
	Matched   int
	Unmatched int
}

// SpreadsheetInput is one uploaded file as handed over by a caller.
type SpreadsheetInput struct {
	Name    string
	Content []byte
	Sheet   string
}
