package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/bill"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/config"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/extract"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/logger"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/vendor"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/zoho"
)

var processCmd = &cobra.Command{
	Use:   "process [pdf-file]",
	Short: "Extract vendor invoices and create draft bills in Zoho Books",
	Long: `Process vendor invoice PDFs into draft bills.

With a file argument, processes that single invoice. Without one, scans the
configured invoices directory and processes every PDF in it; successfully
processed files are moved into a timestamped archive subdirectory so the
next batch run never reprocesses them.

Each document goes through AI extraction (with the chart of accounts, taxes
and organization identity supplied as context), vendor resolution against
the Books registry (GST match first, then name match), tax adjustment for
unregistered vendors, TDS withholding computation and draft-bill creation
with the original PDF attached.

Required environment variables:
  ZOHO_CLIENT_ID, ZOHO_CLIENT_SECRET, ZOHO_REFRESH_TOKEN, ZOHO_ORGANIZATION_ID
  GEMINI_API_KEY (or OPENAI_API_KEY with EXTRACTOR_PROVIDER=openai)

Recommended (set by the setup-org command):
  ZOHO_ORG_NAME, ZOHO_ORG_GST, ZOHO_ORG_STATE`,
	Example: `  # Process a single invoice
  zoho-suite process invoice.pdf

  # Inspect extraction output without writing to Zoho Books
  zoho-suite process invoice.pdf --dry-run

  # Batch process the invoices directory, never prompting for new vendors
  zoho-suite process --on-missing-vendor skip`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().Bool("dry-run", false, "Extract and print bill data without creating anything in Zoho Books")
	processCmd.Flags().String("on-missing-vendor", "prompt", "What to do when no vendor matches: prompt, create, or skip")
	processCmd.Flags().Int("timeout", 1800, "Overall processing timeout in seconds")
}

func runProcess(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("process")

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	onMissing, _ := cmd.Flags().GetString("on-missing-vendor")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	decider, err := vendorDecider(onMissing)
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

	extractor, err := extract.New(ctx, extract.Config{
		Provider:     cfg.ExtractorProvider,
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		OpenAIModel:  cfg.OpenAIModel,
	})
	if err != nil {
		return err
	}

	processor := bill.NewProcessor(client, extractor, decider, bill.OrgContext{
		Name:  cfg.OrgName,
		GST:   cfg.OrgGST,
		State: cfg.OrgState,
	}, nil)

	if err := os.MkdirAll(cfg.ArchiveDir, 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	if len(args) == 1 {
		return processSingle(ctx, processor, args[0], cfg.ArchiveDir, dryRun, log)
	}
	return processBatch(ctx, processor, cfg.InvoicesDir, cfg.ArchiveDir, dryRun, log)
}

func processSingle(ctx context.Context, processor *bill.Processor, filePath, archiveDir string, dryRun bool, log zerolog.Logger) error {
	fmt.Println("Mode: Single file processing")
	printRule(filePath)

	if err := processor.ProcessDocument(ctx, filePath, dryRun); err != nil {
		log.Error().Err(err).Str("file", filePath).Msg("Invoice processing failed")
		return fmt.Errorf("processing %s: %w", filePath, err)
	}

	if !dryRun {
		archived, err := archiveDocument(filePath, archiveDir)
		if err != nil {
			return err
		}
		fmt.Printf("\nArchived to: %s\n", archived)
	}

	fmt.Println("\nSuccess! You can review the draft bill in Zoho Books.")
	return nil
}

func processBatch(ctx context.Context, processor *bill.Processor, invoicesDir, archiveDir string, dryRun bool, log zerolog.Logger) error {
	fmt.Println("Mode: Batch processing")
	fmt.Printf("Scanning directory: %s\n", invoicesDir)

	files, err := listPDFs(invoicesDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No PDF files found in the invoices directory.")
		return nil
	}

	fmt.Printf("Found %d PDF file(s) to process.\n", len(files))

	successCount := 0
	failCount := 0

	for _, file := range files {
		printRule(file)

		// One bad document never aborts the batch.
		if err := processor.ProcessDocument(ctx, file, dryRun); err != nil {
			log.Error().Err(err).Str("file", file).Msg("Invoice processing failed")
			failCount++
			continue
		}
		successCount++

		if !dryRun {
			archived, err := archiveDocument(file, archiveDir)
			if err != nil {
				log.Warn().Err(err).Str("file", file).Msg("Failed to archive processed invoice")
				continue
			}
			fmt.Printf("Archived to: %s\n", archived)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("BATCH PROCESSING COMPLETE")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Successful: %d\n", successCount)
	fmt.Printf("Failed: %d\n", failCount)
	fmt.Printf("Total: %d\n", len(files))

	log.Info().
		Int("total", len(files)).
		Int("success", successCount).
		Int("failed", failCount).
		Msg("Batch processing completed")

	if failCount > 0 {
		return fmt.Errorf("%d of %d invoices failed", failCount, len(files))
	}
	return nil
}

// vendorDecider maps the --on-missing-vendor flag to a decision provider.
func vendorDecider(mode string) (vendor.DecisionProvider, error) {
	switch mode {
	case "prompt":
		return &vendor.TerminalPrompt{In: os.Stdin, Out: os.Stdout}, nil
	case "create":
		return vendor.Policy(true), nil
	case "skip":
		return vendor.Policy(false), nil
	}
	return nil, fmt.Errorf("invalid --on-missing-vendor value: %s (must be prompt, create or skip)", mode)
}

// listPDFs returns the PDF files directly inside dir, sorted by name. The
// archive subdirectory is naturally excluded because the scan is not
// recursive.
func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan invoices directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// archiveDocument moves a successfully processed file into the archive
// directory with a date prefix. Called only on success and never on dry-run,
// so failed documents stay in place for the next run.
func archiveDocument(filePath, archiveDir string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("archive: %w", err)
	}

	stamp := time.Now().Format("2006-01-02")
	target := filepath.Join(archiveDir, fmt.Sprintf("%s_%s", stamp, filepath.Base(absPath)))
	if err := os.Rename(absPath, target); err != nil {
		return "", fmt.Errorf("archive: %w", err)
	}
	return target, nil
}

func printRule(filePath string) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Printf("Processing file: %s...\n", filePath)
	fmt.Println(strings.Repeat("=", 60))
}

// newRunContext creates a context with timeout and interrupt handling.
func newRunContext(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
