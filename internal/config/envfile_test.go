package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertEnvFileCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	err := UpsertEnvFile(path, []string{"ZOHO_ORG_NAME", "ZOHO_ORG_GST"}, map[string]string{
		"ZOHO_ORG_NAME": "Bitkraft Technologies",
		"ZOHO_ORG_GST":  "27AAAAA0000A1Z5",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ZOHO_ORG_NAME=\"Bitkraft Technologies\"\nZOHO_ORG_GST=\"27AAAAA0000A1Z5\"\n", string(data))
}

func TestUpsertEnvFileUpdatesInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	existing := "ZOHO_CLIENT_ID=cid\nZOHO_ORG_NAME=\"Old Name\"\nLOG_LEVEL=debug\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o600))

	err := UpsertEnvFile(path, []string{"ZOHO_ORG_NAME", "ZOHO_ORG_STATE"}, map[string]string{
		"ZOHO_ORG_NAME":  "New Name",
		"ZOHO_ORG_STATE": "Maharashtra",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	// Unrelated lines survive, updated key replaced in place, new key appended.
	assert.Contains(t, content, "ZOHO_CLIENT_ID=cid")
	assert.Contains(t, content, "LOG_LEVEL=debug")
	assert.Contains(t, content, "ZOHO_ORG_NAME=\"New Name\"")
	assert.NotContains(t, content, "Old Name")
	assert.Contains(t, content, "ZOHO_ORG_STATE=\"Maharashtra\"")
}
