package bill

import (
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/zoho"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/pkg/models"
)

// Assemble builds the final draft-bill payload from already-resolved inputs.
// Pure function, no remote calls.
//
// Status "draft" and is_reverse_charge_applied=false are fixed invariants:
// bills are never auto-approved and reverse charge is never set from
// extractor output, whatever the model returned.
func Assemble(vendorID string, extracted *models.ExtractedBill, items []models.LineItem, wh *Withholding) zoho.BillPayload {
	payload := zoho.BillPayload{
		VendorID:               vendorID,
		BillNumber:             extracted.BillNumber,
		Date:                   extracted.Date,
		DueDate:                extracted.DueDate,
		LineItems:              items,
		IsReverseChargeApplied: false,
		Status:                 "draft",
	}

	if wh != nil {
		payload.TDSTaxID = wh.TaxID
		amount := wh.Amount
		payload.TDSAmount = &amount
	}

	return payload
}
