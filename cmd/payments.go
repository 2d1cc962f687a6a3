package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/config"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/logger"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/payments"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/zoho"
)

var paymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "Export unpaid bills as a payment summary CSV and a bank upload sheet",
	Long: `Collect all unpaid and partially paid bills from Zoho Books and export
them as two files: a human-readable payment summary CSV and a bank bulk
payment upload XLSX in the bank's 25-column format.

Bills whose vendor has no bank account on file, and bills with nothing
left to pay, are skipped with a warning. Output files are suffixed with
the current month (for example unpaid_bills_Sep-2025.csv).`,
	Example: `  # Export using outstanding balances as-is
  zoho-suite payments

  # Deduct recorded TDS from each balance before export
  zoho-suite payments --net-method balance-minus-tds`,
	RunE: runPayments,
}

func init() {
	rootCmd.AddCommand(paymentsCmd)

	paymentsCmd.Flags().String("net-method", "balance", "Net payable computation: balance or balance-minus-tds")
	paymentsCmd.Flags().Int("timeout", 600, "Export timeout in seconds")
}

func runPayments(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("payments-cmd")

	netMethod, _ := cmd.Flags().GetString("net-method")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	switch payments.NetMethod(netMethod) {
	case payments.NetMethodBalance, payments.NetMethodBalanceMinusTDS:
	default:
		return fmt.Errorf("invalid --net-method value: %s (must be balance or balance-minus-tds)", netMethod)
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

	exporter := payments.NewExporter(client, payments.Options{
		Method:             payments.NetMethod(netMethod),
		AdviceFormat:       cfg.BankAdviceFormat,
		DebitAccount:       cfg.BankDebitAccount,
		InternalIFSCPrefix: cfg.BankInternalPrefix,
		RunDate:            time.Now(),
	})

	fmt.Println("Collecting unpaid bills from Zoho Books...")

	result, err := exporter.Export(ctx, cfg.PaymentsSummaryDir, cfg.BankPaymentUploadDir)
	if err != nil {
		log.Error().Err(err).Msg("Payment export failed")
		return err
	}

	if result.Exported == 0 {
		fmt.Println("No payable bills found. Nothing to export.")
		return nil
	}

	fmt.Printf("\nExported %d bill(s):\n", result.Exported)
	fmt.Printf("  Summary CSV: %s\n", result.CSVPath)
	fmt.Printf("  Bank upload: %s\n", result.XLSXPath)

	log.Info().
		Int("bills", result.Exported).
		Str("csv", result.CSVPath).
		Str("xlsx", result.XLSXPath).
		Msg("Payment export completed")
	return nil
}
