package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/zoho"
)

// PromptContext carries the closed reference sets and organization identity
// the model needs to produce a valid bill. Accounts and taxes are enumerated
// fresh from the remote system on every run; the model must only ever
// reference the ids listed here.
type PromptContext struct {
	Accounts []zoho.Account
	Taxes    []zoho.Tax

	// OrgName, OrgGST and OrgState identify the buying organization so the
	// model does not mistake it for the vendor and can pick intra vs inter
	// state taxes from the vendor's GSTIN state code.
	OrgName  string
	OrgGST   string
	OrgState string
}

// BuildPrompt assembles the deterministic instruction set for bill
// extraction. The same prompt text is sent whichever provider is selected.
func BuildPrompt(text string, pc PromptContext) string {
	var b strings.Builder

	b.WriteString("Extract structured data from the following invoice.\n")
	b.WriteString("Return ONLY a JSON object that matches the Zoho Books Bill API format.\n\n")

	if len(pc.Accounts) > 0 {
		type accountRef struct {
			AccountName string `json:"account_name"`
			AccountID   string `json:"account_id"`
		}
		refs := make([]accountRef, len(pc.Accounts))
		for i, a := range pc.Accounts {
			refs[i] = accountRef{AccountName: a.AccountName, AccountID: a.AccountID}
		}
		data, _ := json.MarshalIndent(refs, "", "  ")
		fmt.Fprintf(&b, "Available Chart of Accounts (use the exact account_id for mapping):\n%s\n\n", data)
	}

	if len(pc.Taxes) > 0 {
		type taxRef struct {
			TaxName    string `json:"tax_name"`
			TaxID      string `json:"tax_id"`
			Percentage string `json:"percentage"`
			Type       string `json:"type"`
		}
		refs := make([]taxRef, len(pc.Taxes))
		for i, t := range pc.Taxes {
			refs[i] = taxRef{
				TaxName:    t.TaxName,
				TaxID:      t.TaxID,
				Percentage: t.TaxPercentage.String(),
				Type:       t.TaxSpecification,
			}
		}
		data, _ := json.MarshalIndent(refs, "", "  ")
		fmt.Fprintf(&b, "Available Taxes (use the exact tax_id for mapping):\n%s\n\n", data)
	}

	if pc.OrgState != "" {
		fmt.Fprintf(&b, "The organization is based in %s.\n", pc.OrgState)
	} else {
		b.WriteString("The organization is based in Maharashtra (GST State Code 27).\n")
	}

	orgName := pc.OrgName
	if orgName == "" {
		orgName = "Your Organization"
	}
	if pc.OrgGST != "" {
		fmt.Fprintf(&b, `IMPORTANT: Our organization is %q and our GST is %s.
DO NOT extract these as the vendor_name or vendor_gst.
The vendor is the SENDER of the invoice (usually at the top, or labeled as 'From' or 'Seller').
Your organization is the RECIPIENT/BUYER (usually labeled as 'Bill To').
`, orgName, pc.OrgGST)
	}

	b.WriteString(`
Mapping logic:
1. Match each line item to the most appropriate account.
   - If it's a sales resource/marketing, use "Sales & Marketing".
   - If it's a salary/wage, use "Salaries and Employee Wages".
   - If it's rent or license fee for premises, use "Rent Expense" or similar.
   - If unsure, use the "Uncategorized" account.
2. Match the tax mentioned on the invoice to the best available tax_id.
   - CRITICAL: Check the transaction type by comparing the vendor's GSTIN/State with the organization's state.
   - Use 'intra' specification taxes (e.g., GST18) if the vendor is in the SAME state as the organization.
   - Use 'inter' specification taxes (e.g., IGST18) if the vendor is in a DIFFERENT state.
   - The vendor's GSTIN starts with a 2-digit state code (e.g., '27' for Maharashtra).

Required fields for each line item in 'line_items':
- name (Item name)
- rate (Price/Rate as number)
- quantity (Quantity as number)
- description (Full description from invoice)
- account_id (The ID from the Chart of Accounts provided above)
- tax_id (The ID from the Taxes provided above)

Required header fields:
`)
	fmt.Fprintf(&b, "- vendor_name (STRICT: This must be the seller, NOT %s)\n", orgName)
	fmt.Fprintf(&b, "- vendor_gst (STRICT: This must be the seller's GST, NOT %s)\n", pc.OrgGST)
	b.WriteString(`- vendor_pan (PAN Number if available)
- vendor_email (Email address of the vendor)
- vendor_phone (Phone number of the vendor)
- vendor_address (Full address string or object with street, city, state, zip)
- vendor_bank_details (Object with account_number, ifsc_code, bank_name, branch if available)
- bill_number (Invoice/Bill number)
- date (YYYY-MM-DD)
- due_date (YYYY-MM-DD, if missing assume 30 days from date)

Processing instructions:
IDENTIFY THE SENDER: Look for the company logo or name at the top or labeled as "From".
DO NOT CONFUSE THE BUYER (your organization) WITH THE SELLER.
The vendor_name and vendor_gst MUST belong to the company that IS CHARGING for the service/items.
`)

	if text != "" {
		fmt.Fprintf(&b, "\nExtracted text:\n\"\"\"\n%s\n\"\"\"\n", text)
	}

	return b.String()
}
