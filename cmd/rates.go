package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/config"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/logger"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/rates"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/zoho"
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Sync customs exchange rates from ICEGATE into Zoho Books",
	Long: `Fetch the latest customs exchange-rate notification from ICEGATE and push
the rates for the configured target currencies into Zoho Books as manual
exchange rates.

The notification in effect on the target date is selected (the newest one
published on or before that date). Currencies whose automatic rate feed is
enabled get the feed disabled first, since Books rejects manual rates
otherwise. A rate that already exists for the effective date counts as
up to date, not as a failure.`,
	Example: `  # Sync rates effective today
  zoho-suite rates

  # Sync rates effective on a specific date
  zoho-suite rates --date 2025-08-01`,
	RunE: runRates,
}

func init() {
	rootCmd.AddCommand(ratesCmd)

	ratesCmd.Flags().String("date", "", "Target date (YYYY-MM-DD, default today)")
	ratesCmd.Flags().Int("timeout", 300, "Sync timeout in seconds")
}

func runRates(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("rates-cmd")

	dateArg, _ := cmd.Flags().GetString("date")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	target := time.Now()
	if dateArg != "" {
		parsed, err := time.Parse("2006-01-02", dateArg)
		if err != nil {
			return fmt.Errorf("invalid --date value: %s (expected YYYY-MM-DD)", dateArg)
		}
		target = parsed
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := newRunContext(timeoutSecs, log)
	defer cancel()

	client, err := zoho.NewClient(zoho.Config{
		ClientID:       cfg.ZohoClientID,
		ClientSecret:   cfg.ZohoClientSecret,
		RefreshToken:   cfg.ZohoRefreshToken,
		OrganizationID: cfg.ZohoOrganizationID,
		Region:         cfg.ZohoRegion,
	})
	if err != nil {
		return err
	}

	service := rates.NewService(client, rates.NewIcegateSource(""), cfg.TargetCurrencies)

	fmt.Printf("Syncing exchange rates for %s (currencies: %v)...\n",
		target.Format("2006-01-02"), cfg.TargetCurrencies)

	result, err := service.Sync(ctx, target)
	if err != nil {
		log.Error().Err(err).Msg("Exchange rate sync failed")
		return err
	}

	fmt.Printf("\nNotification: %s (effective %s)\n", result.Notification, result.EffectiveDate)
	fmt.Printf("  Updated: %d\n", result.Updated)
	fmt.Printf("  Skipped: %d\n", result.Skipped)
	fmt.Printf("  Failed:  %d\n", result.Failed)

	log.Info().
		Str("notification", result.Notification).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("Exchange rate sync completed")

	if result.Failed > 0 {
		return fmt.Errorf("%d currency rate(s) failed to sync", result.Failed)
	}
	return nil
}
