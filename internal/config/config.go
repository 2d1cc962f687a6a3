package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/logger"
)

type Config struct {
	// Zoho Books Configuration
	ZohoClientID       string
	ZohoClientSecret   string
	ZohoRefreshToken   string
	ZohoOrganizationID string
	ZohoRegion         string

	// Organization identity, fed into the extraction prompt. Populated by
	// the setup-org command.
	OrgName  string
	OrgGST   string
	OrgState string

	// AI Extraction Configuration
	ExtractorProvider string
	GeminiAPIKey      string
	GeminiModel       string
	OpenAIAPIKey      string
	OpenAIModel       string

	// Invoice Processing Directories
	InvoicesDir string
	ArchiveDir  string

	// Payment Export Configuration
	PaymentsSummaryDir   string
	BankPaymentUploadDir string
	BankAdviceFormat     string
	BankDebitAccount     string
	BankInternalPrefix   string

	// Exchange Rate Configuration
	TargetCurrencies []string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		ZohoClientID:       getEnv("ZOHO_CLIENT_ID", ""),
		ZohoClientSecret:   getEnv("ZOHO_CLIENT_SECRET", ""),
		ZohoRefreshToken:   getEnv("ZOHO_REFRESH_TOKEN", ""),
		ZohoOrganizationID: getEnv("ZOHO_ORGANIZATION_ID", ""),
		ZohoRegion:         getEnv("ZOHO_REGION", "com"),

		OrgName:  getEnv("ZOHO_ORG_NAME", "Your Organization"),
		OrgGST:   getEnv("ZOHO_ORG_GST", ""),
		OrgState: getEnv("ZOHO_ORG_STATE", ""),

		ExtractorProvider: getEnv("EXTRACTOR_PROVIDER", "gemini"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		InvoicesDir: getEnv("INVOICES_DIR", "./invoices"),
		ArchiveDir:  getEnv("INVOICES_ARCHIVE_DIR", "./invoices/archive"),

		PaymentsSummaryDir:   getEnv("PAYMENTS_SUMMARY_DIR", "./payments_summary"),
		BankPaymentUploadDir: getEnv("BANK_PAYMENT_UPLOAD_DIR", "./bank_payment_upload"),
		BankAdviceFormat:     getEnv("BANK_ADVICE_FORMAT", "Inv pay {invoice_number}"),
		BankDebitAccount:     getEnv("BANK_DEBIT_ACCOUNT", "5253078611"),
		BankInternalPrefix:   getEnv("BANK_INTERNAL_IFSC_PREFIX", "KKBK"),

		TargetCurrencies: splitList(getEnv("TARGET_CURRENCIES", "USD,EUR,GBP")),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
		LogTimeFormat: getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:     getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.ZohoClientID == "" {
		return fmt.Errorf("ZOHO_CLIENT_ID is required")
	}
	if c.ZohoClientSecret == "" {
		return fmt.Errorf("ZOHO_CLIENT_SECRET is required")
	}
	if c.ZohoRefreshToken == "" {
		return fmt.Errorf("ZOHO_REFRESH_TOKEN is required")
	}
	if c.ZohoOrganizationID == "" {
		return fmt.Errorf("ZOHO_ORGANIZATION_ID is required")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
