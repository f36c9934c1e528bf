package pipeline

import (
	"refcommission/internal"
	"refcommission/internal/util"
)

const (
	colClientCode  = "client_code"
	colPaymentMode = "payment_mode"
	colPayeeAmount = "payee_amount"

	colClient          = "client"
	colReferralPayMode = "payment mode"
	colRateType        = "rates types"
	colRate            = "rates"
)

// headerIndex maps a normalized header to its first column position.
type headerIndex map[string]int

func indexHeaders(headers []string) headerIndex {
	idx := headerIndex{}
	for i, h := range headers {
		if _, exists := idx[h]; !exists {
			idx[h] = i
		}
	}
	return idx
}

func (h headerIndex) require(table, column string) (int, error) {
	i, ok := h[column]
	if !ok {
		return -1, &SchemaError{Table: table, Column: column}
	}
	return i, nil
}

func (h headerIndex) optional(column string) int {
	if i, ok := h[column]; ok {
		return i
	}
	return -1
}

type transactionColumns struct {
	clientCode, paymentMode, payeeAmount int
}

type referralColumns struct {
	client, paymentMode, rateType, rate int
}

func (c referralColumns) hasRates() bool {
	return c.rateType >= 0 && c.rate >= 0
}

func mapTransactionColumns(t internal.Table) (transactionColumns, error) {
	idx := indexHeaders(t.Headers)
	var cols transactionColumns
	var err error
	if cols.clientCode, err = idx.require("transaction table", colClientCode); err != nil {
		return cols, err
	}
	if cols.paymentMode, err = idx.require("transaction table", colPaymentMode); err != nil {
		return cols, err
	}
	if cols.payeeAmount, err = idx.require("transaction table", colPayeeAmount); err != nil {
		return cols, err
	}
	return cols, nil
}

func mapReferralColumns(t internal.Table) (referralColumns, error) {
	idx := indexHeaders(t.Headers)
	var cols referralColumns
	var err error
	if cols.client, err = idx.require("referral table", colClient); err != nil {
		return cols, err
	}
	if cols.paymentMode, err = idx.require("referral table", colReferralPayMode); err != nil {
		return cols, err
	}
	cols.rateType = idx.optional(colRateType)
	cols.rate = idx.optional(colRate)
	return cols, nil
}

func transactionRecords(t internal.Table, cols transactionColumns) []internal.TransactionRecord {
	out := make([]internal.TransactionRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		rec := internal.TransactionRecord{
			Row:         i,
			ClientCode:  cellAt(row, cols.clientCode),
			PaymentMode: cellAt(row, cols.paymentMode),
		}
		if amount := cellAt(row, cols.payeeAmount); amount.Present {
			rec.PayeeAmount = util.ParseNumber(amount.Raw)
		}
		out = append(out, rec)
	}
	return out
}

// referralRecords also returns how many present rate cells failed to parse.
func referralRecords(t internal.Table, cols referralColumns) ([]internal.ReferralRecord, int) {
	out := make([]internal.ReferralRecord, 0, len(t.Rows))
	malformed := 0
	for i, row := range t.Rows {
		rec := internal.ReferralRecord{
			Row:         i,
			Client:      cellAt(row, cols.client),
			PaymentMode: cellAt(row, cols.paymentMode),
		}
		if rateType := cellAt(row, cols.rateType); rateType.Present {
			rec.RateType = util.StringPtr(rateType.Raw)
		}
		if rate := cellAt(row, cols.rate); rate.Present {
			rec.Rate = util.ParseNumber(rate.Raw)
			if rec.Rate == nil {
				malformed++
			}
		}
		out = append(out, rec)
	}
	return out, malformed
}
