package payments

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// bankSheetColumns is the fixed width of a bank-upload row. Most positions
// are blank; the populated subset matches the bank's sample file.
const bankSheetColumns = 25

// Fixed constant codes from the bank's upload template.
const (
	paymentTypeCode      = "BI6846PAY"
	instructionCode      = "VPAY"
	internalTransferCode = "IFT"
	externalTransferCode = "NEFT"
	payeeTypeCode        = "M"
)

// FileSuffix is the month-year suffix for generated file names, e.g.
// "Sep-2025".
func FileSuffix(t time.Time) string {
	return t.Format("Jan-2006")
}

// WriteCSV renders the 6-column payment summary. Fields are comma-joined
// with no quoting, matching the consuming process; embedded commas in vendor
// names would break the format (known fragility, kept deliberately).
func WriteCSV(w io.Writer, rows []Row) error {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, "Bill Number,Amount Payable (Net of TDS),Bill Date,Bank IFSC Code,Bank Account Number,Vendor Name")

	for _, row := range rows {
		lines = append(lines, strings.Join([]string{
			row.BillNumber,
			row.NetPayable.StringFixed(2),
			row.BillDate,
			orNA(row.RoutingNumber),
			orNA(row.AccountNumber),
			row.VendorName,
		}, ","))
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}

// BankRows renders rows into the bank's fixed 25-column layout.
func BankRows(rows []Row, opts Options) [][]any {
	runDate := opts.RunDate.Format("02/01/2006")

	out := make([][]any, 0, len(rows))
	for _, row := range rows {
		advice := adviceText(opts.AdviceFormat, row.BillNumber)

		r := make([]any, bankSheetColumns)
		r[0] = paymentTypeCode
		r[1] = instructionCode
		r[2] = transferMode(row.RoutingNumber, opts.InternalIFSCPrefix)
		r[4] = runDate
		r[6] = opts.DebitAccount
		r[7] = row.NetPayable.Round(2).InexactFloat64()
		r[8] = payeeTypeCode
		r[10] = row.VendorName
		r[12] = row.RoutingNumber
		r[13] = row.AccountNumber
		r[23] = advice // credit-side advice
		r[24] = advice // debit-side advice

		out = append(out, r)
	}
	return out
}

// WriteXLSX writes the bank-upload workbook with a single "Data" sheet and
// no header row, as the bank's intake expects.
func WriteXLSX(path string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Data"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("payments: prepare sheet: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("payments: row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("payments: row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("payments: write workbook: %w", err)
	}
	return nil
}

// Result reports what an export run produced.
type Result struct {
	CSVPath  string
	XLSXPath string
	Exported int
}

// Export runs the full pipeline: collect rows, then emit both files into the
// given directories (created if absent), named with the run date's
// month-year suffix.
func (e *Exporter) Export(ctx context.Context, summaryDir, uploadDir string) (*Result, error) {
	rows, err := e.CollectRows(ctx)
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{summaryDir, uploadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("payments: create output dir: %w", err)
		}
	}

	suffix := FileSuffix(e.opts.RunDate)
	csvPath := filepath.Join(summaryDir, fmt.Sprintf("unpaid_bills_%s.csv", suffix))
	xlsxPath := filepath.Join(uploadDir, fmt.Sprintf("bank_payment_%s.xlsx", suffix))

	csvFile, err := os.Create(csvPath)
	if err != nil {
		return nil, fmt.Errorf("payments: create csv: %w", err)
	}
	if err := WriteCSV(csvFile, rows); err != nil {
		csvFile.Close()
		return nil, fmt.Errorf("payments: write csv: %w", err)
	}
	if err := csvFile.Close(); err != nil {
		return nil, fmt.Errorf("payments: close csv: %w", err)
	}

	if err := WriteXLSX(xlsxPath, BankRows(rows, e.opts)); err != nil {
		return nil, err
	}

	e.log.Info().
		Int("bills", len(rows)).
		Str("csv", csvPath).
		Str("xlsx", xlsxPath).
		Msg("Payment export generated")

	return &Result{CSVPath: csvPath, XLSXPath: xlsxPath, Exported: len(rows)}, nil
}

func transferMode(routing, internalPrefix string) string {
	if internalPrefix != "" && strings.HasPrefix(routing, internalPrefix) {
		return internalTransferCode
	}
	return externalTransferCode
}

// adviceText fills the advice template with the bill number stripped of
// non-alphanumerics (the bank rejects special characters in advice fields).
func adviceText(format, billNumber string) string {
	var b strings.Builder
	for _, r := range billNumber {
		if r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	if format == "" {
		format = "Inv pay {invoice_number}"
	}
	return strings.ReplaceAll(format, "{invoice_number}", b.String())
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
