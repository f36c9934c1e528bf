package pipeline

import (
	"context"

	"refcommission/internal"
)

const cancelCheckEvery = 1024

// keyCell is the part of a cell that takes part in key comparison.
// Formatting and stored type do not.
type keyCell struct {
	raw     string
	present bool
}

type joinKey struct {
	client      keyCell
	paymentMode keyCell
}

func keyOf(client, paymentMode internal.Cell) joinKey {
	return joinKey{
		client:      keyCell{raw: client.Raw, present: client.Present},
		paymentMode: keyCell{raw: paymentMode.Raw, present: paymentMode.Present},
	}
}

// LeftJoin pairs every transaction with each referral sharing its
// (client_code, payment_mode) = (client, payment mode) key. Transactions
// without a match appear once with a nil Referral. Output follows
// transaction order, then referral order within a fan-out.
func LeftJoin(ctx context.Context, txns []internal.TransactionRecord, refs []internal.ReferralRecord) ([]internal.JoinedRow, error) {
	byKey := make(map[joinKey][]int, len(refs))
	for i, ref := range refs {
		key := keyOf(ref.Client, ref.PaymentMode)
		byKey[key] = append(byKey[key], i)
	}

	out := make([]internal.JoinedRow, 0, len(txns))
	for i, txn := range txns {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		matches := byKey[keyOf(txn.ClientCode, txn.PaymentMode)]
		if len(matches) == 0 {
			out = append(out, internal.JoinedRow{Transaction: txn})
			continue
		}
		for _, refIdx := range matches {
			ref := refs[refIdx]
			out = append(out, internal.JoinedRow{Transaction: txn, Referral: &ref})
		}
	}
	return out, nil
}

// joinedHeaders lists transaction columns then referral columns. A name
// present on both sides gets "_x" on the transaction side and "_y" on the
// referral side.
func joinedHeaders(txnHeaders, refHeaders []string) []string {
	inTxn := make(map[string]bool, len(txnHeaders))
	for _, h := range txnHeaders {
		inTxn[h] = true
	}
	inRef := make(map[string]bool, len(refHeaders))
	for _, h := range refHeaders {
		inRef[h] = true
	}

	out := make([]string, 0, len(txnHeaders)+len(refHeaders)+1)
	for _, h := range txnHeaders {
		if inRef[h] {
			h += "_x"
		}
		out = append(out, h)
	}
	for _, h := range refHeaders {
		if inTxn[h] {
			h += "_y"
		}
		out = append(out, h)
	}
	return out
}

func cellAt(row []internal.Cell, i int) internal.Cell {
	if i < 0 || i >= len(row) {
		return internal.Cell{}
	}
	return row[i]
}
