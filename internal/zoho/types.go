package zoho

import (
	"github.com/shopspring/decimal"

	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/pkg/models"
)

// Organization identifies the Books organization the suite operates on.
// The GST registration number and state feed the extraction prompt so the
// model can tell the buyer apart from the vendor and pick intra vs inter
// state taxes.
type Organization struct {
	Name        string `json:"name"`
	TaxSettings struct {
		TaxRegNo string `json:"tax_reg_no"`
	} `json:"tax_settings"`
	Address struct {
		State string `json:"state"`
	} `json:"address"`
}

// Account is a chart-of-accounts entry. The full list is enumerated fresh on
// every run and supplied verbatim to the extractor so line items only ever
// reference valid account ids.
type Account struct {
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
}

// Tax is a configured tax rate. Specification is "intra" or "inter",
// selecting GST vs IGST depending on the vendor's state.
type Tax struct {
	TaxID            string          `json:"tax_id"`
	TaxName          string          `json:"tax_name"`
	TaxPercentage    decimal.Decimal `json:"tax_percentage"`
	TaxSpecification string          `json:"tax_specification"`
}

// Vendor is the summary contact record from the vendor list view. It omits
// bank accounts and withholding configuration; those require GetVendor.
type Vendor struct {
	ContactID   string `json:"contact_id"`
	ContactName string `json:"contact_name"`
	VendorName  string `json:"vendor_name"`
	CompanyName string `json:"company_name"`
	GSTNo       string `json:"gst_no"`
}

// VendorDetail is the full contact profile.
type VendorDetail struct {
	Vendor

	PANNo        string          `json:"pan_no"`
	BankAccounts []BankAccount   `json:"bank_accounts"`
	TDSTaxID     string          `json:"tds_tax_id"`
	TDSTaxName   string          `json:"tds_tax_name"`
	TDSTaxPct    decimal.Decimal `json:"tds_tax_percentage"`
}

// HasTDS reports whether the vendor carries a usable withholding
// configuration. A zero percentage is treated the same as absent.
func (v *VendorDetail) HasTDS() bool {
	return v.TDSTaxID != "" && !v.TDSTaxPct.IsZero()
}

// BankAccount holds a vendor's payout destination. RoutingNumber carries the
// IFSC code in the Indian edition of the API.
type BankAccount struct {
	RoutingNumber string `json:"routing_number"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
	IsPrimary     bool   `json:"is_primary_account"`
}

// DisplayName returns the best human-readable name for a vendor, matching
// the precedence the export pipelines use.
func (v *Vendor) DisplayName() string {
	switch {
	case v.VendorName != "":
		return v.VendorName
	case v.ContactName != "":
		return v.ContactName
	case v.CompanyName != "":
		return v.CompanyName
	}
	return "Unknown Vendor"
}

// BillingAddress is the structured address block on a contact record.
type BillingAddress struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// ContactPerson is a person entry attached to a contact record.
type ContactPerson struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	IsPrimary bool   `json:"is_primary_contact"`
}

// CreateVendorPayload is the body for vendor creation. The client forces
// ContactType to "vendor" before sending.
type CreateVendorPayload struct {
	ContactName    string          `json:"contact_name"`
	CompanyName    string          `json:"company_name"`
	GSTNo          string          `json:"gst_no,omitempty"`
	GSTTreatment   string          `json:"gst_treatment"`
	PANNo          string          `json:"pan_no"`
	BillingAddress BillingAddress  `json:"billing_address"`
	ContactPersons []ContactPerson `json:"contact_persons"`
	Notes          string          `json:"notes"`
	ContactType    string          `json:"contact_type,omitempty"`
}

// BillPayload is the draft bill body. Status and IsReverseChargeApplied are
// fixed at assembly time and never derived from extractor output: bills are
// always created as drafts and reverse charge is never applied automatically.
type BillPayload struct {
	VendorID               string            `json:"vendor_id"`
	BillNumber             string            `json:"bill_number"`
	Date                   string            `json:"date"`
	DueDate                string            `json:"due_date,omitempty"`
	LineItems              []models.LineItem `json:"line_items"`
	IsReverseChargeApplied bool              `json:"is_reverse_charge_applied"`
	Status                 string            `json:"status"`

	TDSTaxID  string           `json:"tds_tax_id,omitempty"`
	TDSAmount *decimal.Decimal `json:"tds_amount,omitempty"`
}

// BillSummary is a bill from the list view. The list view's balance is not
// authoritative; exporters must fetch the full bill.
type BillSummary struct {
	BillID     string `json:"bill_id"`
	BillNumber string `json:"bill_number"`
	VendorID   string `json:"vendor_id"`
	VendorName string `json:"vendor_name"`
	Status     string `json:"status"`
	Date       string `json:"date"`
}

// Bill is the full bill record, including the authoritative balance and the
// withholding summary applied at creation time.
type Bill struct {
	BillID     string          `json:"bill_id"`
	BillNumber string          `json:"bill_number"`
	VendorID   string          `json:"vendor_id"`
	Status     string          `json:"status"`
	Date       string          `json:"date"`
	DueDate    string          `json:"due_date"`
	Total      decimal.Decimal `json:"total"`
	Balance    decimal.Decimal `json:"balance"`
	TDSSummary []TDSEntry      `json:"tds_summary"`
}

// TDSEntry is one withholding line in a bill's tds_summary.
type TDSEntry struct {
	TDSTaxName string          `json:"tds_tax_name"`
	TDSAmount  decimal.Decimal `json:"tds_amount"`
}

// Currency is a configured currency in the organization's settings. The
// echo-back fields (format, separators) are required by the update endpoint
// even when only the exchange rate changes.
type Currency struct {
	CurrencyID        string          `json:"currency_id"`
	CurrencyCode      string          `json:"currency_code"`
	CurrencyName      string          `json:"currency_name"`
	CurrencySymbol    string          `json:"currency_symbol"`
	PricePrecision    int             `json:"price_precision"`
	CurrencyFormat    string          `json:"currency_format"`
	DecimalSeparator  string          `json:"decimal_separator"`
	ThousandSeparator string          `json:"thousand_separator"`
	ExchangeRate      decimal.Decimal `json:"exchange_rate,omitempty"`
	IsBaseCurrency    bool            `json:"is_base_currency"`
	IsActive          bool            `json:"is_active"`

	// The list and detail views report the automatic-feed flag under
	// different names; either one being set means manual rates get
	// overwritten until the feed is disabled.
	ExchangeRateFeedEnabled bool `json:"exchange_rate_feed_enabled"`
	AutoExchangeRateEnabled bool `json:"auto_exchange_rate_enabled"`
}

// FeedEnabled reports whether the automatic exchange-rate feed is on under
// either flag name.
func (c *Currency) FeedEnabled() bool {
	return c.ExchangeRateFeedEnabled || c.AutoExchangeRateEnabled
}
