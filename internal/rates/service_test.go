package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/zoho"
)

type fakeSource struct {
	notif *Notification
	err   error
}

func (f *fakeSource) LatestNotification(context.Context, time.Time) (*Notification, error) {
	return f.notif, f.err
}

type fakeBooks struct {
	currencies []zoho.Currency

	disabledFeeds []string
	disableErr    error

	setRates map[string]decimal.Decimal
	setDates map[string]string
	rateErrs map[string]error
}

func newFakeBooks(currencies ...zoho.Currency) *fakeBooks {
	return &fakeBooks{
		currencies: currencies,
		setRates:   make(map[string]decimal.Decimal),
		setDates:   make(map[string]string),
		rateErrs:   make(map[string]error),
	}
}

func (f *fakeBooks) GetCurrencies(context.Context) ([]zoho.Currency, error) {
	return f.currencies, nil
}

func (f *fakeBooks) DisableRateFeed(_ context.Context, currencyID string) error {
	f.disabledFeeds = append(f.disabledFeeds, currencyID)
	return f.disableErr
}

func (f *fakeBooks) SetExchangeRate(_ context.Context, currencyID string, rate decimal.Decimal, effectiveDate string) error {
	if err := f.rateErrs[currencyID]; err != nil {
		return err
	}
	f.setRates[currencyID] = rate
	f.setDates[currencyID] = effectiveDate
	return nil
}

func circularFixture() *Notification {
	return &Notification{
		NotificationNumber: "05/2024",
		NotPublishDate:     "15-03-2024",
		CurrencyDetail: []CurrencyRate{
			{CurrencyCode: "USD", CBICExport: decimal.RequireFromString("83.25"), Units: "1"},
			{CurrencyCode: "JPY", CBICExport: decimal.RequireFromString("57.35"), Units: "100"},
			{CurrencyCode: "CHF", CBICExport: decimal.RequireFromString("95.10"), Units: "1"},
		},
	}
}

func TestSyncUpdatesTargetCurrencies(t *testing.T) {
	books := newFakeBooks(
		zoho.Currency{CurrencyID: "cur-usd", CurrencyCode: "USD"},
		zoho.Currency{CurrencyID: "cur-jpy", CurrencyCode: "JPY"},
	)
	svc := NewService(books, &fakeSource{notif: circularFixture()}, []string{"USD", "JPY"})

	result, err := svc.Sync(context.Background(), time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "05/2024", result.Notification)
	assert.Equal(t, "2024-03-15", result.EffectiveDate)
	assert.Equal(t, 2, result.Updated)
	assert.Zero(t, result.Failed)

	assert.Equal(t, "83.25", books.setRates["cur-usd"].String())
	// Per-100 quotation divided down.
	assert.Equal(t, "0.5735", books.setRates["cur-jpy"].String())
	assert.Equal(t, "2024-03-15", books.setDates["cur-usd"])

	// CHF is in the circular but not targeted; no update recorded.
	assert.NotContains(t, books.setRates, "cur-chf")
}

func TestSyncDisablesLiveFeedFirst(t *testing.T) {
	books := newFakeBooks(
		zoho.Currency{CurrencyID: "cur-usd", CurrencyCode: "USD", ExchangeRateFeedEnabled: true},
	)
	svc := NewService(books, &fakeSource{notif: circularFixture()}, []string{"USD"})

	_, err := svc.Sync(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"cur-usd"}, books.disabledFeeds)
	assert.Contains(t, books.setRates, "cur-usd")
}

func TestSyncFeedDisableFailureStillPushesRate(t *testing.T) {
	books := newFakeBooks(
		zoho.Currency{CurrencyID: "cur-usd", CurrencyCode: "USD", AutoExchangeRateEnabled: true},
	)
	books.disableErr = errors.New("feed toggle rejected")
	svc := NewService(books, &fakeSource{notif: circularFixture()}, []string{"USD"})

	result, err := svc.Sync(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
}

func TestSyncSkipsUnconfiguredCurrency(t *testing.T) {
	books := newFakeBooks(zoho.Currency{CurrencyID: "cur-usd", CurrencyCode: "USD"})
	svc := NewService(books, &fakeSource{notif: circularFixture()}, []string{"USD", "JPY"})

	result, err := svc.Sync(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Skipped)
}

func TestSyncCountsPerCurrencyFailures(t *testing.T) {
	books := newFakeBooks(
		zoho.Currency{CurrencyID: "cur-usd", CurrencyCode: "USD"},
		zoho.Currency{CurrencyID: "cur-jpy", CurrencyCode: "JPY"},
	)
	books.rateErrs["cur-usd"] = errors.New("rate rejected")
	svc := NewService(books, &fakeSource{notif: circularFixture()}, []string{"USD", "JPY"})

	result, err := svc.Sync(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Updated)
}

func TestSyncSourceFailurePropagates(t *testing.T) {
	svc := NewService(newFakeBooks(), &fakeSource{err: ErrNoNotifications}, []string{"USD"})

	_, err := svc.Sync(context.Background(), time.Now())
	assert.ErrorIs(t, err, ErrNoNotifications)
}
