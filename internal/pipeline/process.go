package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"refcommission/internal"
	"refcommission/internal/config"
)

type ProcessingService struct {
	cfg    config.Config
	logger *logrus.Logger
}

func NewProcessingService(cfg config.Config, logger *logrus.Logger) *ProcessingService {
	return &ProcessingService{cfg: cfg, logger: logger}
}

// Calculate decodes both uploads and runs the commission pipeline. It returns
// either a complete result or an error, never a partial table.
func (s *ProcessingService) Calculate(ctx context.Context, referral, transaction internal.SpreadsheetInput) (internal.CommissionResult, error) {
	if referral.Sheet == "" {
		referral.Sheet = s.cfg.ReferralSheet
	}
	if transaction.Sheet == "" {
		transaction.Sheet = s.cfg.TransactionSheet
	}

	refTable, err := ReadTable(referral)
	if err != nil {
		return internal.CommissionResult{}, err
	}
	txnTable, err := ReadTable(transaction)
	if err != nil {
		return internal.CommissionResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return internal.CommissionResult{}, &ProcessingError{Stage: "read", Err: err}
	}

	return s.CalculateTables(ctx, refTable, txnTable)
}

// CalculateTables runs normalization, the left join and the commission rule
// over already decoded tables.
func (s *ProcessingService) CalculateTables(ctx context.Context, referrals, transactions internal.Table) (result internal.CommissionResult, err error) {
	start := time.Now()
	runID := uuid.NewString()
	log := s.logger.WithField("run_id", runID)

	defer func() {
		if r := recover(); r != nil {
			result = internal.CommissionResult{}
			err = &ProcessingError{Stage: "compute", Err: fmt.Errorf("%v", r)}
		}
		if err != nil {
			log.WithError(err).Error("commission run failed")
		}
	}()

	refs := NormalizeHeaders(referrals)
	txns := NormalizeHeaders(transactions)

	txnCols, err := mapTransactionColumns(txns)
	if err != nil {
		return internal.CommissionResult{}, err
	}
	refCols, err := mapReferralColumns(refs)
	if err != nil {
		return internal.CommissionResult{}, err
	}
	if !refCols.hasRates() {
		log.Warnf("referral table has no %q or %q column, every commission will be 0", colRateType, colRate)
	}

	txnRecords := transactionRecords(txns, txnCols)
	refRecords, malformed := referralRecords(refs, refCols)
	if malformed > 0 {
		log.WithField("rows", malformed).Warn("referral rates that are not numbers are treated as missing")
	}

	joined, err := LeftJoin(ctx, txnRecords, refRecords)
	if err != nil {
		return internal.CommissionResult{}, &ProcessingError{Stage: "join", Err: err}
	}

	result = internal.CommissionResult{
		RunID:   runID,
		Headers: dedupeHeaders(append(joinedHeaders(txns.Headers, refs.Headers), internal.CommissionColumn)),
		Rows:    make([]internal.CommissionRow, 0, len(joined)),
	}
	for i, row := range joined {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return internal.CommissionResult{}, &ProcessingError{Stage: "compute", Err: err}
			}
		}

		result.Rows = append(result.Rows, internal.CommissionRow{
			Cells:      joinedCells(txns, refs, row),
			Commission: rowCommission(row),
		})
		if row.Referral != nil {
			result.Matched++
		} else {
			result.Unmatched++
		}
	}

	log.WithFields(logrus.Fields{
		"transactions": len(txnRecords),
		"referrals":    len(refRecords),
		"output_rows":  len(result.Rows),
		"matched":      result.Matched,
		"unmatched":    result.Unmatched,
		"elapsed_ms":   time.Since(start).Milliseconds(),
	}).Info("commission run done")

	return result, nil
}

// joinedCells copies the transaction row and the matched referral row into a
// fresh slice. An unmatched row gets missing cells for every referral column.
func joinedCells(txns, refs internal.Table, row internal.JoinedRow) []internal.Cell {
	cells := make([]internal.Cell, 0, len(txns.Headers)+len(refs.Headers))
	txnRow := txns.Rows[row.Transaction.Row]
	for i := range txns.Headers {
		cells = append(cells, cellAt(txnRow, i))
	}

	var refRow []internal.Cell
	if row.Referral != nil {
		refRow = refs.Rows[row.Referral.Row]
	}
	for i := range refs.Headers {
		cells = append(cells, cellAt(refRow, i))
	}
	return cells
}
