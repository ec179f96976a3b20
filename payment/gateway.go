package payment

import (
	"context"

	"github.com/eddiespino/aliento-pay/vests"
)

// TransferOperation is one wallet transfer in a batch submission, with the
// amount rendered in the blockchain asset format
type TransferOperation struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Memo   string `json:"memo"`
}

// ProcessResult is the gateway's report for one submitted batch. On partial
// success the wallet executes operations in submission order, so
// ProcessedCount identifies the completed prefix.
type ProcessResult struct {
	Success        bool
	TransactionID  string
	ProcessedCount int
	FailedCount    int
	ErrorMessage   string
}

// Balance is the sender account balance as reported by the wallet
type Balance struct {
	Account  string
	Amount   float64
	Currency string
}

// Gateway submits payment batches to an external signing wallet. The wallet
// holds the keys; this system never signs anything itself.
type Gateway interface {
	// ProcessBatch submits all operations of the batch in one signature
	// and reports the outcome. A transport failure is returned as an
	// error; an on-chain rejection comes back inside the result.
	ProcessBatch(ctx context.Context, batch *Batch) (ProcessResult, error)

	// EstimateFees reports the expected cost of submitting the batch
	EstimateFees(ctx context.Context, batch *Batch) (float64, error)

	// Balance reports the sender's spendable balance
	Balance(ctx context.Context, account, currency string) (Balance, error)
}

// Operations renders the member payments as wallet transfer operations in
// batch order
func (b *Batch) Operations() []TransferOperation {
	ops := make([]TransferOperation, 0, len(b.Payments))
	for _, p := range b.Payments {
		ops = append(ops, TransferOperation{
			From:   p.From,
			To:     p.To,
			Amount: vests.FormatAsset(p.Amount, p.Currency),
			Memo:   p.Memo,
		})
	}
	return ops
}
