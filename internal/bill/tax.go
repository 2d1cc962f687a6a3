package bill

import (
	"github.com/shopspring/decimal"

	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/zoho"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/pkg/models"
)

var hundred = decimal.NewFromInt(100)

// AdjustLineItems normalizes line items for the outgoing payload. Quantity
// defaults to 1 when the extractor omitted it; the remote system would
// otherwise compute a zero line total from "quantity":0. For unregistered
// vendors (no GST number, which cannot legally be charged tax) every line
// item is additionally stripped of tax_id, tax_exemption_code and
// tax_exemption_id. The tax fields must end up absent from the JSON payload,
// not null; a present exemption key would trigger the remote system's
// tax-exemption workflow.
//
// The input slice is never mutated.
func AdjustLineItems(items []models.LineItem, vendorHasGST bool) []models.LineItem {
	out := make([]models.LineItem, len(items))
	copy(out, items)
	for i := range out {
		out[i].Quantity = out[i].EffectiveQuantity()
		if !vendorHasGST {
			out[i].TaxID = ""
			out[i].TaxExemptionCode = ""
			out[i].TaxExemptionID = ""
		}
	}
	return out
}

// Subtotal is the pre-tax sum of rate × quantity across line items, with
// quantity defaulting to 1 when absent.
func Subtotal(items []models.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Rate.Mul(item.EffectiveQuantity()))
	}
	return sum
}

// Withholding is the TDS deduction to attach to a bill.
type Withholding struct {
	TaxID      string
	TaxName    string
	Percentage decimal.Decimal
	Amount     decimal.Decimal
}

// ComputeWithholding derives the statutory withholding from the vendor's
// configured TDS rate. The subtotal is computed over the ORIGINAL
// (pre-adjustment) line items and the amount rounded to 2 decimals.
//
// Returns nil when the vendor has no usable TDS configuration; that is a
// warning condition for manual verification, never an error that blocks the
// bill.
func ComputeWithholding(v *zoho.VendorDetail, items []models.LineItem) *Withholding {
	if v == nil || !v.HasTDS() {
		return nil
	}

	amount := Subtotal(items).Mul(v.TDSTaxPct).Div(hundred).Round(2)
	return &Withholding{
		TaxID:      v.TDSTaxID,
		TaxName:    v.TDSTaxName,
		Percentage: v.TDSTaxPct,
		Amount:     amount,
	}
}
