// Package bill turns an AI-extracted invoice into a valid, tax-correct
// draft bill in Zoho Books: vendor identity resolution with an interactive
// create-fallback, jurisdiction-aware line-item tax adjustment, statutory
// withholding computation and final payload assembly.
package bill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/extract"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/logger"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/vendor"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/zoho"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/pkg/models"
)

// BooksAPI is the slice of the remote client the pipeline needs. *zoho.Client
// satisfies it; tests substitute fakes.
type BooksAPI interface {
	GetAccounts(ctx context.Context) ([]zoho.Account, error)
	GetTaxes(ctx context.Context) ([]zoho.Tax, error)
	GetVendors(ctx context.Context) ([]zoho.Vendor, error)
	GetVendor(ctx context.Context, vendorID string) (*zoho.VendorDetail, error)
	CreateVendor(ctx context.Context, payload zoho.CreateVendorPayload) (*zoho.VendorDetail, error)
	CreateBill(ctx context.Context, payload zoho.BillPayload) (*zoho.Bill, error)
	UploadAttachment(ctx context.Context, billID, filePath string) error
}

// OrgContext is the organization identity injected into the extraction
// prompt.
type OrgContext struct {
	Name  string
	GST   string
	State string
}

// Processor runs the per-document reconciliation pipeline.
type Processor struct {
	books       BooksAPI
	extractor   extract.Extractor
	decider     vendor.DecisionProvider
	extractText extract.TextExtractor
	org         OrgContext
	log         zerolog.Logger
}

// NewProcessor wires a pipeline. extractText may be nil, in which case the
// default PDF text extractor is used.
func NewProcessor(books BooksAPI, extractor extract.Extractor, decider vendor.DecisionProvider, org OrgContext, extractText extract.TextExtractor) *Processor {
	if extractText == nil {
		extractText = extract.ExtractText
	}
	return &Processor{
		books:       books,
		extractor:   extractor,
		decider:     decider,
		extractText: extractText,
		org:         org,
		log:         logger.WithComponent("pipeline"),
	}
}

// ProcessDocument runs the full pipeline for one invoice PDF. In dry-run
// mode it stops after printing the extracted data, before any remote write.
//
// Any returned error is a per-document failure: callers in batch mode log it
// and continue with the next file.
func (p *Processor) ProcessDocument(ctx context.Context, filePath string, dryRun bool) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	// Text layer is best-effort; scanned invoices fall back to the
	// multimodal model reading the raw bytes.
	text, err := p.extractText(absPath)
	if err != nil {
		p.log.Warn().Err(err).Str("file", absPath).
			Msg("Text extraction failed, falling back to multimodal vision")
		text = ""
	}

	pdfBytes, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	accounts, taxes, err := p.fetchReferenceData(ctx)
	if err != nil {
		return err
	}

	p.log.Info().
		Int("accounts", len(accounts)).
		Int("taxes", len(taxes)).
		Str("file", filepath.Base(absPath)).
		Msg("Extracting bill data with AI")

	extracted, err := p.extractor.ExtractBill(ctx, extract.Input{
		Text: text,
		PDF:  pdfBytes,
		Context: extract.PromptContext{
			Accounts: accounts,
			Taxes:    taxes,
			OrgName:  p.org.Name,
			OrgGST:   p.org.GST,
			OrgState: p.org.State,
		},
	})
	if err != nil {
		return err
	}

	pretty, _ := json.MarshalIndent(extracted, "", "  ")
	fmt.Println("Extracted Bill Data:")
	fmt.Println(string(pretty))

	if dryRun {
		fmt.Println("\n[Dry Run] Bill creation skipped.")
		return nil
	}

	vendorID, err := p.resolveVendor(ctx, extracted)
	if err != nil {
		return err
	}

	// Unregistered vendors (no GST on the invoice) must not carry any tax
	// or tax-exemption keys on their line items.
	items := AdjustLineItems(extracted.LineItems, extracted.VendorGST != "")

	withholding := p.lookupWithholding(ctx, vendorID, extracted)

	payload := Assemble(vendorID, extracted, items, withholding)

	p.log.Info().
		Str("vendor_id", vendorID).
		Str("bill_number", payload.BillNumber).
		Bool("tds", withholding != nil).
		Msg("Creating draft bill")

	created, err := p.books.CreateBill(ctx, payload)
	if err != nil {
		return fmt.Errorf("%w: create bill: %v", ErrRemoteWrite, err)
	}
	fmt.Printf("Bill created successfully! Bill ID: %s\n", created.BillID)

	if err := p.books.UploadAttachment(ctx, created.BillID, absPath); err != nil {
		return fmt.Errorf("%w: upload attachment: %v", ErrRemoteWrite, err)
	}
	fmt.Println("Attachment uploaded successfully!")

	return nil
}

// fetchReferenceData loads accounts and taxes concurrently; both are needed
// before prompting and neither depends on the other.
func (p *Processor) fetchReferenceData(ctx context.Context) ([]zoho.Account, []zoho.Tax, error) {
	var (
		wg       sync.WaitGroup
		accounts []zoho.Account
		taxes    []zoho.Tax
		accErr   error
		taxErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		accounts, accErr = p.books.GetAccounts(ctx)
	}()
	go func() {
		defer wg.Done()
		taxes, taxErr = p.books.GetTaxes(ctx)
	}()
	wg.Wait()

	if accErr != nil {
		return nil, nil, fmt.Errorf("fetch accounts: %w", accErr)
	}
	if taxErr != nil {
		return nil, nil, fmt.Errorf("fetch taxes: %w", taxErr)
	}
	return accounts, taxes, nil
}

// resolveVendor matches the extracted vendor against the registry, falling
// back to the decision-provider-driven create flow on a miss.
func (p *Processor) resolveVendor(ctx context.Context, extracted *models.ExtractedBill) (string, error) {
	registry, err := p.books.GetVendors(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch vendors: %w", err)
	}

	matched, err := vendor.Resolve(extracted, registry)
	if err == nil {
		p.log.Info().
			Str("vendor", matched.DisplayName()).
			Str("contact_id", matched.ContactID).
			Msg("Vendor resolved")
		return matched.ContactID, nil
	}

	var notFound *vendor.NotFoundError
	if !errors.As(err, &notFound) {
		return "", err
	}

	create, decideErr := p.decider.ConfirmCreate(notFound)
	if decideErr != nil {
		return "", decideErr
	}
	if !create {
		p.log.Info().Str("vendor", notFound.Name).Msg("Skipping vendor creation")
		if len(registry) > 0 {
			names := make([]string, 0, 10)
			for i := 0; i < len(registry) && i < 10; i++ {
				names = append(names, registry[i].DisplayName())
			}
			p.log.Info().Strs("available_vendors", names).Msg("First registry entries for reference")
		}
		return "", fmt.Errorf("%w: %v", ErrVendorDeclined, notFound)
	}

	created, err := p.books.CreateVendor(ctx, vendor.BuildCreatePayload(extracted))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrVendorCreateFailed, err)
	}
	fmt.Printf("Vendor created successfully: %s (ID: %s)\n", created.ContactName, created.ContactID)
	return created.ContactID, nil
}

// lookupWithholding fetches the full vendor profile (the list view omits TDS
// configuration) and computes the deduction over the original line items.
// Fetch failures and missing TDS configuration both degrade to a warning;
// the bill is still created and the operator verifies TDS manually.
func (p *Processor) lookupWithholding(ctx context.Context, vendorID string, extracted *models.ExtractedBill) *Withholding {
	full, err := p.books.GetVendor(ctx, vendorID)
	if err != nil {
		p.log.Warn().Err(err).Str("vendor_id", vendorID).
			Msg("Failed to fetch detailed vendor profile for TDS, proceeding without TDS")
		return nil
	}

	wh := ComputeWithholding(full, extracted.LineItems)
	if wh == nil {
		p.log.Warn().Str("vendor", full.DisplayName()).
			Msg("TDS settings not found for vendor; verify and apply TDS manually if required")
		return nil
	}

	p.log.Info().
		Str("tds_tax", wh.TaxName).
		Str("percentage", wh.Percentage.String()).
		Str("amount", wh.Amount.StringFixed(2)).
		Msg("Applied TDS deduction")
	return wh
}
