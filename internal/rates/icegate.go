// Package rates syncs statutory customs exchange rates into the accounting
// system's currency settings. Rates come from ICEGATE (Indian Customs) rate
// notifications, which are published roughly twice a month under sequential
// notification numbers.
package rates

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/logger"
)

// ErrNoNotifications is returned when the scan finds no valid rate
// notifications for the target year.
var ErrNoNotifications = errors.New("no valid rate notifications found")

// maxNotificationNum bounds the scan. Customs publishes about two rate
// notifications per month, so 39 covers a full year with headroom.
const maxNotificationNum = 39

// publishDateLayout is the DD-MM-YYYY format ICEGATE uses.
const publishDateLayout = "02-01-2006"

// Notification is one published exchange-rate circular.
type Notification struct {
	NotificationNumber string         `json:"notificationNumber"`
	NotPublishDate     string         `json:"notPublishDate"`
	CurrencyDetail     []CurrencyRate `json:"currencyDetail"`
}

// PublishDate parses the circular's publish date.
func (n *Notification) PublishDate() (time.Time, error) {
	return time.Parse(publishDateLayout, n.NotPublishDate)
}

// CurrencyRate is one currency's row in a notification. Units is the number
// of foreign-currency units the published rate covers (e.g. JPY is quoted
// per 100).
type CurrencyRate struct {
	CurrencyCode string          `json:"currencyCode"`
	CBICImport   decimal.Decimal `json:"cbicImport"`
	CBICExport   decimal.Decimal `json:"cbicExport"`
	Units        string          `json:"units"`
}

// UnitRate returns the per-unit export rate (falling back to the import
// rate), rounded to 6 decimals. Returns false when the row carries no rate.
func (r *CurrencyRate) UnitRate() (decimal.Decimal, bool) {
	raw := r.CBICExport
	if raw.IsZero() {
		raw = r.CBICImport
	}
	if raw.IsZero() {
		return decimal.Zero, false
	}

	units, err := decimal.NewFromString(r.Units)
	if err != nil || units.IsZero() {
		units = decimal.NewFromInt(1)
	}
	return raw.Div(units).Round(6), true
}

// Source provides the latest applicable rate notification.
type Source interface {
	LatestNotification(ctx context.Context, target time.Time) (*Notification, error)
}

// IcegateSource scans the ICEGATE publication API.
type IcegateSource struct {
	httpClient *http.Client
	baseURL    string
	workers    int
	log        zerolog.Logger
}

// NewIcegateSource creates a source against the public ICEGATE endpoint.
// baseURL is overridable for tests; empty selects production.
func NewIcegateSource(baseURL string) *IcegateSource {
	if baseURL == "" {
		baseURL = "https://foservices.icegate.gov.in"
	}
	return &IcegateSource{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		workers:    5,
		log:        logger.WithComponent("icegate"),
	}
}

// LatestNotification scans notification numbers 01..39 of the target year in
// parallel and returns the newest circular with a publish date on or before
// the target date. When every found circular is newer than the target, the
// oldest one is returned as a fallback.
func (s *IcegateSource) LatestNotification(ctx context.Context, target time.Time) (*Notification, error) {
	numbers := make(chan string, maxNotificationNum)
	for i := 1; i <= maxNotificationNum; i++ {
		numbers <- fmt.Sprintf("%02d/%d", i, target.Year())
	}
	close(numbers)

	var (
		mu    sync.Mutex
		found []*Notification
		wg    sync.WaitGroup
	)

	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for num := range numbers {
				notif, err := s.fetch(ctx, num)
				if err != nil {
					s.log.Debug().Err(err).Str("notification", num).Msg("Notification lookup failed")
					continue
				}
				if notif != nil && len(notif.CurrencyDetail) > 0 {
					mu.Lock()
					found = append(found, notif)
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if len(found) == 0 {
		return nil, ErrNoNotifications
	}

	// Newest first; unparseable dates sink to the end.
	sort.Slice(found, func(i, j int) bool {
		di, erri := found[i].PublishDate()
		dj, errj := found[j].PublishDate()
		if erri != nil {
			return false
		}
		if errj != nil {
			return true
		}
		return di.After(dj)
	})

	for _, notif := range found {
		d, err := notif.PublishDate()
		if err != nil {
			continue
		}
		if !d.After(target) {
			return notif, nil
		}
	}

	s.log.Warn().Msg("No circular effective before target date; using oldest found")
	return found[len(found)-1], nil
}

func (s *IcegateSource) fetch(ctx context.Context, notificationNum string) (*Notification, error) {
	payload, _ := json.Marshal(map[string]string{"notNum": notificationNum})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/cbu/icegateapi/igexratepublishnot", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://foservices.icegate.gov.in")
	req.Header.Set("Referer", "https://foservices.icegate.gov.in/")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("icegate: HTTP %d for %s", resp.StatusCode, notificationNum)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var notif Notification
	if err := json.Unmarshal(body, &notif); err != nil {
		return nil, err
	}
	return &notif, nil
}
