package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DueDateOffsetDays is applied when the invoice does not state a due date.
const DueDateOffsetDays = 30

// ExtractedBill is the structured record returned by AI extraction.
// It is untrusted input: every field may be wrong or missing, and the
// resolver/assembler layers are responsible for validating what they use.
type ExtractedBill struct {
	VendorName    string       `json:"vendor_name"`
	VendorGST     string       `json:"vendor_gst,omitempty"`
	VendorPAN     string       `json:"vendor_pan,omitempty"`
	VendorEmail   string       `json:"vendor_email,omitempty"`
	VendorPhone   string       `json:"vendor_phone,omitempty"`
	VendorAddress Address      `json:"vendor_address,omitempty"`
	VendorBank    *BankDetails `json:"vendor_bank_details,omitempty"`

	BillNumber string     `json:"bill_number"`
	Date       string     `json:"date"`
	DueDate    string     `json:"due_date,omitempty"`
	LineItems  []LineItem `json:"line_items"`
}

// LineItem is a single billable line. AccountID and TaxID must reference
// entries from the chart of accounts / tax list supplied to the extractor.
// The three tax fields use omitempty so that clearing them removes the keys
// from the payload entirely; the remote system treats a null tax_id
// differently from an absent one (it triggers the tax-exemption workflow).
type LineItem struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Rate        decimal.Decimal `json:"rate"`
	Quantity    decimal.Decimal `json:"quantity"`
	AccountID   string          `json:"account_id,omitempty"`

	TaxID            string `json:"tax_id,omitempty"`
	TaxExemptionCode string `json:"tax_exemption_code,omitempty"`
	TaxExemptionID   string `json:"tax_exemption_id,omitempty"`
}

// EffectiveQuantity returns the quantity to bill, defaulting to 1 when the
// extractor omitted it (or returned 0).
func (li LineItem) EffectiveQuantity() decimal.Decimal {
	if li.Quantity.IsZero() {
		return decimal.NewFromInt(1)
	}
	return li.Quantity
}

// Address holds the vendor billing address. The extractor may return either a
// flat string or a structured object; both decode into this type, with the
// flat form landing in Street.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

func (a *Address) UnmarshalJSON(data []byte) error {
	// Flat string form first.
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = Address{Street: s}
		return nil
	}

	type plain Address
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Address(p)
	return nil
}

// BankDetails carries vendor bank information found on the invoice itself.
// The remote vendor schema has no first-class fields for these, so they are
// appended to the vendor record as free-text notes on creation.
type BankDetails struct {
	AccountNumber string `json:"account_number,omitempty"`
	IFSCCode      string `json:"ifsc_code,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	Branch        string `json:"branch,omitempty"`
}

// ApplyDueDateDefault fills DueDate with Date+30 days when the extractor left
// it empty. Invalid dates are left untouched for the remote system to reject.
func (b *ExtractedBill) ApplyDueDateDefault() {
	if b.DueDate != "" || b.Date == "" {
		return
	}
	d, err := time.Parse("2006-01-02", b.Date)
	if err != nil {
		return
	}
	b.DueDate = d.AddDate(0, 0, DueDateOffsetDays).Format("2006-01-02")
}
