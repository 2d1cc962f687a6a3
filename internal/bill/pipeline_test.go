package bill

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/extract"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/vendor"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/zoho"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/pkg/models"
)

type fakeBooks struct {
	vendors      []zoho.Vendor
	vendorDetail *zoho.VendorDetail
	vendorErr    error

	createdVendor *zoho.CreateVendorPayload
	createBillErr error

	billPayload *zoho.BillPayload
	uploadedTo  string
	uploadPath  string
}

func (f *fakeBooks) GetAccounts(context.Context) ([]zoho.Account, error) {
	return []zoho.Account{{AccountID: "acc-1", AccountName: "Professional Fees"}}, nil
}

func (f *fakeBooks) GetTaxes(context.Context) ([]zoho.Tax, error) {
	return []zoho.Tax{{TaxID: "tax-18", TaxName: "GST18", TaxPercentage: decimal.NewFromInt(18), TaxSpecification: "intra"}}, nil
}

func (f *fakeBooks) GetVendors(context.Context) ([]zoho.Vendor, error) {
	return f.vendors, nil
}

func (f *fakeBooks) GetVendor(_ context.Context, vendorID string) (*zoho.VendorDetail, error) {
	if f.vendorErr != nil {
		return nil, f.vendorErr
	}
	return f.vendorDetail, nil
}

func (f *fakeBooks) CreateVendor(_ context.Context, payload zoho.CreateVendorPayload) (*zoho.VendorDetail, error) {
	f.createdVendor = &payload
	return &zoho.VendorDetail{Vendor: zoho.Vendor{ContactID: "v-new", ContactName: payload.ContactName}}, nil
}

func (f *fakeBooks) CreateBill(_ context.Context, payload zoho.BillPayload) (*zoho.Bill, error) {
	if f.createBillErr != nil {
		return nil, f.createBillErr
	}
	f.billPayload = &payload
	return &zoho.Bill{BillID: "bill-1", BillNumber: payload.BillNumber}, nil
}

func (f *fakeBooks) UploadAttachment(_ context.Context, billID, filePath string) error {
	f.uploadedTo = billID
	f.uploadPath = filePath
	return nil
}

type fakeExtractor struct {
	bill *models.ExtractedBill
	err  error
	in   extract.Input
}

func (f *fakeExtractor) ExtractBill(_ context.Context, in extract.Input) (*models.ExtractedBill, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return f.bill, nil
}

func (f *fakeExtractor) ProviderName() string { return "fake" }

func writeTempPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "invoice.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o644))
	return path
}

func noText(string) (string, error) { return "", errors.New("no text layer") }

func extractedFixture() *models.ExtractedBill {
	return &models.ExtractedBill{
		VendorName: "Apex Traders",
		VendorGST:  "27AAAAA0000A1Z5",
		BillNumber: "INV-001",
		Date:       "2024-03-01",
		DueDate:    "2024-03-31",
		LineItems: []models.LineItem{
			{Name: "Consulting", Rate: decimal.NewFromInt(100000), AccountID: "acc-1", TaxID: "tax-18"},
		},
	}
}

func TestProcessDocumentHappyPathWithTDS(t *testing.T) {
	books := &fakeBooks{
		vendors: []zoho.Vendor{{ContactID: "v1", CompanyName: "Apex Traders Pvt Ltd", GSTNo: "27AAAAA0000A1Z5"}},
		vendorDetail: &zoho.VendorDetail{
			Vendor:     zoho.Vendor{ContactID: "v1", VendorName: "Apex Traders"},
			TDSTaxID:   "tds-194j",
			TDSTaxName: "194J",
			TDSTaxPct:  decimal.NewFromInt(2),
		},
	}
	extractor := &fakeExtractor{bill: extractedFixture()}
	p := NewProcessor(books, extractor, vendor.Policy(false), OrgContext{Name: "My Org"}, noText)

	err := p.ProcessDocument(context.Background(), writeTempPDF(t), false)
	require.NoError(t, err)

	require.NotNil(t, books.billPayload)
	assert.Equal(t, "v1", books.billPayload.VendorID)
	assert.Equal(t, "draft", books.billPayload.Status)
	assert.False(t, books.billPayload.IsReverseChargeApplied)
	assert.Equal(t, "tds-194j", books.billPayload.TDSTaxID)
	require.NotNil(t, books.billPayload.TDSAmount)
	assert.True(t, books.billPayload.TDSAmount.Equal(decimal.NewFromInt(2000)))
	// Registered vendor keeps its tax ids.
	assert.Equal(t, "tax-18", books.billPayload.LineItems[0].TaxID)
	// Absent quantity on the extraction lands as 1 in the payload.
	assert.True(t, books.billPayload.LineItems[0].Quantity.Equal(decimal.NewFromInt(1)))

	assert.Equal(t, "bill-1", books.uploadedTo)
	assert.NotEmpty(t, books.uploadPath)

	// Reference data and org identity reach the prompt context.
	assert.Equal(t, "My Org", extractor.in.Context.OrgName)
	require.Len(t, extractor.in.Context.Accounts, 1)
	assert.NotEmpty(t, extractor.in.PDF)
}

func TestProcessDocumentUnregisteredVendorStripsTax(t *testing.T) {
	extracted := extractedFixture()
	extracted.VendorGST = ""
	extracted.VendorName = "Cash Vendor"

	books := &fakeBooks{
		vendors:      []zoho.Vendor{{ContactID: "v9", CompanyName: "Cash Vendor Services"}},
		vendorDetail: &zoho.VendorDetail{Vendor: zoho.Vendor{ContactID: "v9"}},
	}
	p := NewProcessor(books, &fakeExtractor{bill: extracted}, vendor.Policy(false), OrgContext{}, noText)

	require.NoError(t, p.ProcessDocument(context.Background(), writeTempPDF(t), false))

	require.NotNil(t, books.billPayload)
	assert.Empty(t, books.billPayload.LineItems[0].TaxID)
	// No TDS config on the vendor; bill still created, without withholding.
	assert.Nil(t, books.billPayload.TDSAmount)
}

func TestProcessDocumentDryRunStopsBeforeRemoteWrites(t *testing.T) {
	books := &fakeBooks{}
	p := NewProcessor(books, &fakeExtractor{bill: extractedFixture()}, vendor.Policy(true), OrgContext{}, noText)

	require.NoError(t, p.ProcessDocument(context.Background(), writeTempPDF(t), true))

	assert.Nil(t, books.billPayload)
	assert.Nil(t, books.createdVendor)
	assert.Empty(t, books.uploadedTo)
}

func TestProcessDocumentVendorDeclined(t *testing.T) {
	books := &fakeBooks{vendors: []zoho.Vendor{{ContactID: "v1", CompanyName: "Someone Else"}}}
	p := NewProcessor(books, &fakeExtractor{bill: extractedFixture()}, vendor.Policy(false), OrgContext{}, noText)

	err := p.ProcessDocument(context.Background(), writeTempPDF(t), false)
	require.ErrorIs(t, err, ErrVendorDeclined)
	assert.Nil(t, books.billPayload)
}

func TestProcessDocumentCreatesVendorOnApproval(t *testing.T) {
	extracted := extractedFixture()
	extracted.VendorName = "Brand New Vendor"
	extracted.VendorGST = "29ZZZZZ9999Z1Z5"

	books := &fakeBooks{
		vendors:      []zoho.Vendor{{ContactID: "v1", CompanyName: "Someone Else"}},
		vendorDetail: &zoho.VendorDetail{Vendor: zoho.Vendor{ContactID: "v-new"}},
	}
	p := NewProcessor(books, &fakeExtractor{bill: extracted}, vendor.Policy(true), OrgContext{}, noText)

	require.NoError(t, p.ProcessDocument(context.Background(), writeTempPDF(t), false))

	require.NotNil(t, books.createdVendor)
	assert.Equal(t, "Brand New Vendor", books.createdVendor.ContactName)
	require.NotNil(t, books.billPayload)
	assert.Equal(t, "v-new", books.billPayload.VendorID)
}

func TestProcessDocumentVendorDetailFetchFailureDegrades(t *testing.T) {
	books := &fakeBooks{
		vendors:   []zoho.Vendor{{ContactID: "v1", CompanyName: "Apex Traders Pvt Ltd", GSTNo: "27AAAAA0000A1Z5"}},
		vendorErr: errors.New("transient 500"),
	}
	p := NewProcessor(books, &fakeExtractor{bill: extractedFixture()}, vendor.Policy(false), OrgContext{}, noText)

	// TDS lookup failure is a warning, not a pipeline failure.
	require.NoError(t, p.ProcessDocument(context.Background(), writeTempPDF(t), false))
	require.NotNil(t, books.billPayload)
	assert.Nil(t, books.billPayload.TDSAmount)
}

func TestProcessDocumentCreateBillFailure(t *testing.T) {
	books := &fakeBooks{
		vendors:       []zoho.Vendor{{ContactID: "v1", CompanyName: "Apex Traders Pvt Ltd", GSTNo: "27AAAAA0000A1Z5"}},
		vendorDetail:  &zoho.VendorDetail{Vendor: zoho.Vendor{ContactID: "v1"}},
		createBillErr: errors.New("quota exceeded"),
	}
	p := NewProcessor(books, &fakeExtractor{bill: extractedFixture()}, vendor.Policy(false), OrgContext{}, noText)

	err := p.ProcessDocument(context.Background(), writeTempPDF(t), false)
	require.ErrorIs(t, err, ErrRemoteWrite)
	assert.Empty(t, books.uploadedTo)
}

func TestProcessDocumentExtractionFailure(t *testing.T) {
	p := NewProcessor(&fakeBooks{}, &fakeExtractor{err: extract.ErrExtractionFailed}, vendor.Policy(false), OrgContext{}, noText)

	err := p.ProcessDocument(context.Background(), writeTempPDF(t), false)
	require.ErrorIs(t, err, extract.ErrExtractionFailed)
}

func TestProcessDocumentMissingFile(t *testing.T) {
	p := NewProcessor(&fakeBooks{}, &fakeExtractor{bill: extractedFixture()}, vendor.Policy(false), OrgContext{}, noText)

	err := p.ProcessDocument(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), false)
	require.Error(t, err)
}
