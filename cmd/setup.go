package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/config"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/logger"
	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/zoho"
)

var setupOrgCmd = &cobra.Command{
	Use:   "setup-org",
	Short: "Fetch organization identity from Zoho Books and save it to .env",
	Long: `Fetch the organization's name, GST number and state from Zoho Books and
write them into the local .env file as ZOHO_ORG_NAME, ZOHO_ORG_GST and
ZOHO_ORG_STATE. Existing entries are updated in place; everything else in
the file is left untouched.

The process command uses these values to keep the AI extractor from
mistaking your own organization for the invoice vendor. Run this once
after configuring your Zoho credentials.`,
	RunE: runSetupOrg,
}

func init() {
	rootCmd.AddCommand(setupOrgCmd)

	setupOrgCmd.Flags().String("env-file", ".env", "Path of the env file to update")
	setupOrgCmd.Flags().Int("timeout", 60, "Fetch timeout in seconds")
}

func runSetupOrg(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("setup-org")

	envFile, _ := cmd.Flags().GetString("env-file")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

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

	fmt.Println("Fetching organization details from Zoho Books...")

	org, err := client.GetOrganization(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch organization")
		return err
	}

	values := map[string]string{
		"ZOHO_ORG_NAME":  org.Name,
		"ZOHO_ORG_GST":   org.TaxSettings.TaxRegNo,
		"ZOHO_ORG_STATE": org.Address.State,
	}
	keys := []string{"ZOHO_ORG_NAME", "ZOHO_ORG_GST", "ZOHO_ORG_STATE"}

	if err := config.UpsertEnvFile(envFile, keys, values); err != nil {
		return err
	}

	fmt.Printf("\nSaved organization identity to %s:\n", envFile)
	fmt.Printf("  Name:  %s\n", org.Name)
	fmt.Printf("  GST:   %s\n", org.TaxSettings.TaxRegNo)
	fmt.Printf("  State: %s\n", org.Address.State)

	log.Info().Str("org", org.Name).Msg("Organization setup completed")
	return nil
}
