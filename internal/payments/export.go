// Package payments generates bank-payment export files for settled-but-unpaid
// bills: a tabular CSV summary and a fixed-column spreadsheet for bank upload.
//
// Net-payable amounts are recomputed from the remote bill's authoritative
// balance on every run; nothing is persisted locally. Two derivations exist
// (see NetMethod) because the remote balance semantics around withholding are
// an open contract question; they must agree when the remote system nets TDS
// out of balance at creation time.
package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/logger"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/zoho"
)

// NetMethod selects how the net-payable amount is derived from the full bill.
type NetMethod string

const (
	// NetMethodBalance trusts the remote balance field outright. Zoho nets
	// the TDS deduction out of balance at bill-creation time, so this
	// method must NOT subtract TDS a second time.
	NetMethodBalance NetMethod = "balance"

	// NetMethodBalanceMinusTDS re-derives net payable as
	// balance − Σ tds_summary amounts, for remote states where the balance
	// does not already net TDS out.
	NetMethodBalanceMinusTDS NetMethod = "balance-minus-tds"
)

// BooksAPI is the slice of the remote client the exporter needs.
type BooksAPI interface {
	GetBills(ctx context.Context, status string) ([]zoho.BillSummary, error)
	GetBill(ctx context.Context, billID string) (*zoho.Bill, error)
	GetVendor(ctx context.Context, vendorID string) (*zoho.VendorDetail, error)
}

// Options configures an export run.
type Options struct {
	Method NetMethod

	// AdviceFormat is the payment-advice template; {invoice_number} is
	// replaced with the bill number stripped of non-alphanumerics.
	AdviceFormat string

	// DebitAccount is the fixed debit-account constant for the bank sheet.
	DebitAccount string

	// InternalIFSCPrefix marks routing codes that stay inside the debit
	// bank; those rows get the internal-transfer code instead of NEFT.
	InternalIFSCPrefix string

	// RunDate stamps the bank sheet and the output file names.
	RunDate time.Time
}

// Row is one exportable bill, shared by both output formats.
type Row struct {
	BillNumber    string
	NetPayable    decimal.Decimal
	BillDate      string
	RoutingNumber string
	AccountNumber string
	VendorName    string
}

// Exporter collects unpaid bills into export rows.
type Exporter struct {
	books BooksAPI
	opts  Options
	log   zerolog.Logger
}

func NewExporter(books BooksAPI, opts Options) *Exporter {
	if opts.Method == "" {
		opts.Method = NetMethodBalance
	}
	if opts.RunDate.IsZero() {
		opts.RunDate = time.Now()
	}
	return &Exporter{
		books: books,
		opts:  opts,
		log:   logger.WithComponent("payments"),
	}
}

// CollectRows queries unpaid and partially-paid bills and resolves each into
// an export row. Per-bill failures are logged and skipped; the run never
// aborts on a single bill.
func (e *Exporter) CollectRows(ctx context.Context) ([]Row, error) {
	unpaid, err := e.books.GetBills(ctx, "unpaid")
	if err != nil {
		return nil, fmt.Errorf("payments: fetch unpaid bills: %w", err)
	}
	partial, err := e.books.GetBills(ctx, "partially_paid")
	if err != nil {
		return nil, fmt.Errorf("payments: fetch partially paid bills: %w", err)
	}
	candidates := append(unpaid, partial...)

	e.log.Info().Int("candidates", len(candidates)).Msg("Found unpaid/partially paid bills")

	// Vendors repeat across bills; cache per run to avoid redundant
	// remote fetches.
	vendorCache := make(map[string]*zoho.VendorDetail)

	var rows []Row
	for _, summary := range candidates {
		vnd, ok := vendorCache[summary.VendorID]
		if !ok {
			vnd, err = e.books.GetVendor(ctx, summary.VendorID)
			if err != nil {
				e.log.Warn().Err(err).
					Str("bill", summary.BillNumber).
					Str("vendor_id", summary.VendorID).
					Msg("Skipping bill: vendor fetch failed")
				continue
			}
			vendorCache[summary.VendorID] = vnd
		}

		vendorName := vnd.DisplayName()

		if len(vnd.BankAccounts) == 0 {
			e.log.Warn().
				Str("bill", summary.BillNumber).
				Str("vendor", vendorName).
				Msg("Skipping bill: no bank account on file")
			continue
		}
		// Multiple accounts are not disambiguated; the first one on file
		// is used.
		bank := vnd.BankAccounts[0]

		full, err := e.books.GetBill(ctx, summary.BillID)
		if err != nil {
			e.log.Warn().Err(err).
				Str("bill", summary.BillNumber).
				Msg("Skipping bill: detail fetch failed")
			continue
		}

		net := e.netPayable(full)
		if !net.IsPositive() {
			e.log.Info().
				Str("bill", full.BillNumber).
				Msg("Skipping bill: net payable is 0")
			continue
		}

		rows = append(rows, Row{
			BillNumber:    full.BillNumber,
			NetPayable:    net.Round(2),
			BillDate:      full.Date,
			RoutingNumber: bank.RoutingNumber,
			AccountNumber: bank.AccountNumber,
			VendorName:    vendorName,
		})
	}

	return rows, nil
}

func (e *Exporter) netPayable(b *zoho.Bill) decimal.Decimal {
	if e.opts.Method != NetMethodBalanceMinusTDS {
		return b.Balance
	}
	tds := decimal.Zero
	for _, entry := range b.TDSSummary {
		tds = tds.Add(entry.TDSAmount)
	}
	return b.Balance.Sub(tds)
}
