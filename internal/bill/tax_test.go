package bill

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/zoho"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/pkg/models"
)

func taxedItems() []models.LineItem {
	return []models.LineItem{
		{
			Name:             "Consulting",
			Rate:             decimal.NewFromInt(50000),
			Quantity:         decimal.NewFromInt(2),
			AccountID:        "acc-1",
			TaxID:            "tax-gst-18",
			TaxExemptionCode: "",
		},
		{
			Name:      "Travel",
			Rate:      decimal.RequireFromString("1250.75"),
			AccountID: "acc-2",
			TaxID:     "tax-gst-5",
		},
	}
}

func TestAdjustLineItemsRegisteredVendorUntouched(t *testing.T) {
	items := taxedItems()
	out := AdjustLineItems(items, true)

	require.Len(t, out, 2)
	assert.Equal(t, "tax-gst-18", out[0].TaxID)
	assert.Equal(t, "tax-gst-5", out[1].TaxID)
}

func TestAdjustLineItemsUnregisteredVendorStripped(t *testing.T) {
	items := taxedItems()
	items[0].TaxExemptionCode = "EXEMPT"
	items[0].TaxExemptionID = "ex-1"

	out := AdjustLineItems(items, false)

	for _, item := range out {
		assert.Empty(t, item.TaxID)
		assert.Empty(t, item.TaxExemptionCode)
		assert.Empty(t, item.TaxExemptionID)
	}

	// Input must not be mutated.
	assert.Equal(t, "tax-gst-18", items[0].TaxID)
	assert.Equal(t, "EXEMPT", items[0].TaxExemptionCode)
}

func TestAdjustLineItemsDefaultsAbsentQuantity(t *testing.T) {
	// An extractor response with no quantity key must not reach the remote
	// system as quantity 0.
	var item models.LineItem
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Consulting","rate":5000,"account_id":"acc-1"}`), &item))

	out := AdjustLineItems([]models.LineItem{item}, true)

	data, err := json.Marshal(out[0])
	require.NoError(t, err)

	var roundTrip models.LineItem
	require.NoError(t, json.Unmarshal(data, &roundTrip))
	assert.True(t, roundTrip.Quantity.Equal(decimal.NewFromInt(1)))
}

func TestAdjustLineItemsDefaultsZeroQuantity(t *testing.T) {
	items := []models.LineItem{
		{Name: "Travel", Rate: decimal.NewFromInt(100), Quantity: decimal.Zero},
		{Name: "Consulting", Rate: decimal.NewFromInt(200), Quantity: decimal.NewFromInt(3)},
	}

	out := AdjustLineItems(items, false)
	assert.True(t, out[0].Quantity.Equal(decimal.NewFromInt(1)))
	// Explicit quantities survive.
	assert.True(t, out[1].Quantity.Equal(decimal.NewFromInt(3)))
}

func TestAdjustedItemsMarshalWithoutTaxKeys(t *testing.T) {
	out := AdjustLineItems(taxedItems(), false)

	data, err := json.Marshal(out[0])
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "tax_id")
	assert.NotContains(t, raw, "tax_exemption_code")
	assert.NotContains(t, raw, "tax_exemption_id")
}

func TestSubtotal(t *testing.T) {
	items := []models.LineItem{
		{Rate: decimal.NewFromInt(50000), Quantity: decimal.NewFromInt(2)},
		{Rate: decimal.RequireFromString("1250.75")}, // quantity defaults to 1
	}

	assert.Equal(t, "101250.75", Subtotal(items).String())
}

func TestComputeWithholding(t *testing.T) {
	v := &zoho.VendorDetail{
		TDSTaxID:   "tds-194j",
		TDSTaxName: "194J Professional Fees",
		TDSTaxPct:  decimal.NewFromInt(2),
	}
	items := []models.LineItem{
		{Rate: decimal.NewFromInt(100000)},
	}

	wh := ComputeWithholding(v, items)
	require.NotNil(t, wh)
	assert.Equal(t, "tds-194j", wh.TaxID)
	assert.Equal(t, "2000", wh.Amount.String())
	assert.True(t, wh.Amount.Equal(decimal.RequireFromString("2000.00")))
}

func TestComputeWithholdingRounding(t *testing.T) {
	v := &zoho.VendorDetail{
		TDSTaxID:  "tds-194c",
		TDSTaxPct: decimal.RequireFromString("1.5"),
	}
	items := []models.LineItem{
		{Rate: decimal.RequireFromString("333.33"), Quantity: decimal.NewFromInt(3)},
	}

	// 999.99 × 1.5% = 14.99985, rounds to 15.00.
	wh := ComputeWithholding(v, items)
	require.NotNil(t, wh)
	assert.True(t, wh.Amount.Equal(decimal.NewFromInt(15)))
}

func TestComputeWithholdingNoConfiguration(t *testing.T) {
	items := []models.LineItem{{Rate: decimal.NewFromInt(1000)}}

	assert.Nil(t, ComputeWithholding(nil, items))
	assert.Nil(t, ComputeWithholding(&zoho.VendorDetail{}, items))
	// A rate without an id is unusable.
	assert.Nil(t, ComputeWithholding(&zoho.VendorDetail{TDSTaxPct: decimal.NewFromInt(10)}, items))
	// An id with a zero rate is unusable.
	assert.Nil(t, ComputeWithholding(&zoho.VendorDetail{TDSTaxID: "tds-1"}, items))
}

func TestAssemble(t *testing.T) {
	extracted := &models.ExtractedBill{
		BillNumber: "INV-042",
		Date:       "2024-03-01",
		DueDate:    "2024-03-31",
	}
	items := []models.LineItem{{Name: "Consulting", Rate: decimal.NewFromInt(100000)}}

	payload := Assemble("v1", extracted, items, &Withholding{
		TaxID:  "tds-194j",
		Amount: decimal.RequireFromString("2000.00"),
	})

	assert.Equal(t, "v1", payload.VendorID)
	assert.Equal(t, "INV-042", payload.BillNumber)
	assert.Equal(t, "draft", payload.Status)
	assert.False(t, payload.IsReverseChargeApplied)
	assert.Equal(t, "tds-194j", payload.TDSTaxID)
	require.NotNil(t, payload.TDSAmount)
	assert.True(t, payload.TDSAmount.Equal(decimal.NewFromInt(2000)))
}

func TestAssembleWithoutWithholding(t *testing.T) {
	extracted := &models.ExtractedBill{BillNumber: "INV-043", Date: "2024-03-01"}

	payload := Assemble("v1", extracted, nil, nil)

	assert.Empty(t, payload.TDSTaxID)
	assert.Nil(t, payload.TDSAmount)
	assert.Equal(t, "draft", payload.Status)
}
