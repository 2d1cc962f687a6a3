package rates

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/logger"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/zoho"
)

// BooksAPI is the slice of the remote client the rate sync needs.
type BooksAPI interface {
	GetCurrencies(ctx context.Context) ([]zoho.Currency, error)
	DisableRateFeed(ctx context.Context, currencyID string) error
	SetExchangeRate(ctx context.Context, currencyID string, rate decimal.Decimal, effectiveDate string) error
}

// Service pushes published customs rates into the organization's currency
// settings.
type Service struct {
	books   BooksAPI
	source  Source
	targets []string
	log     zerolog.Logger
}

func NewService(books BooksAPI, source Source, targetCurrencies []string) *Service {
	return &Service{
		books:   books,
		source:  source,
		targets: targetCurrencies,
		log:     logger.WithComponent("rates"),
	}
}

// SyncResult reports a sync run.
type SyncResult struct {
	Notification  string
	EffectiveDate string
	Updated       int
	Skipped       int
	Failed        int
}

// Sync finds the circular effective on or before target and applies its
// rates to every configured target currency present in the organization.
// Per-currency failures are logged and counted; the run continues.
func (s *Service) Sync(ctx context.Context, target time.Time) (*SyncResult, error) {
	notif, err := s.source.LatestNotification(ctx, target)
	if err != nil {
		return nil, err
	}

	publishDate, err := notif.PublishDate()
	if err != nil {
		return nil, fmt.Errorf("rates: bad publish date %q: %w", notif.NotPublishDate, err)
	}
	effectiveDate := publishDate.Format("2006-01-02")

	s.log.Info().
		Str("notification", notif.NotificationNumber).
		Str("effective_date", effectiveDate).
		Msg("Selected rate notification")

	currencies, err := s.books.GetCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("rates: fetch currencies: %w", err)
	}
	byCode := make(map[string]zoho.Currency, len(currencies))
	for _, c := range currencies {
		byCode[c.CurrencyCode] = c
	}

	wanted := make(map[string]bool, len(s.targets))
	for _, code := range s.targets {
		wanted[code] = true
	}

	result := &SyncResult{
		Notification:  notif.NotificationNumber,
		EffectiveDate: effectiveDate,
	}

	for _, row := range notif.CurrencyDetail {
		if !wanted[row.CurrencyCode] {
			continue
		}

		rate, ok := row.UnitRate()
		if !ok {
			s.log.Warn().Str("currency", row.CurrencyCode).Msg("No rate in notification row")
			result.Skipped++
			continue
		}

		cur, ok := byCode[row.CurrencyCode]
		if !ok {
			s.log.Warn().Str("currency", row.CurrencyCode).
				Msg("Currency not configured in organization, skipping")
			result.Skipped++
			continue
		}

		// A live automatic feed overwrites manual rates; turn it off
		// before pushing.
		if cur.FeedEnabled() {
			s.log.Warn().Str("currency", cur.CurrencyCode).
				Msg("Rate feed is enabled, disabling before manual update")
			if err := s.books.DisableRateFeed(ctx, cur.CurrencyID); err != nil {
				s.log.Warn().Err(err).Str("currency", cur.CurrencyCode).
					Msg("Failed to disable rate feed")
			}
		}

		if err := s.books.SetExchangeRate(ctx, cur.CurrencyID, rate, effectiveDate); err != nil {
			s.log.Error().Err(err).Str("currency", cur.CurrencyCode).
				Msg("Failed to update exchange rate")
			result.Failed++
			continue
		}

		s.log.Info().
			Str("currency", cur.CurrencyCode).
			Str("rate", rate.String()).
			Msg("Exchange rate updated")
		result.Updated++
	}

	return result, nil
}
