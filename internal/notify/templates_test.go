package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalogDefaults(t *testing.T) {
	cat, err := LoadCatalog("")
	require.NoError(t, err)

	subject, body, err := cat.Render(TemplateAccountConfirm, map[string]string{
		"Username": "alice",
		"BaseURL":  "https://reddot.example",
		"Token":    "tok-123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Reddot Account Confirmation", subject)
	assert.Contains(t, body, "alice")
	assert.Contains(t, body, "https://reddot.example/auth/confirm-account?token=tok-123")
}

func TestRenderUnknownTemplate(t *testing.T) {
	cat, err := LoadCatalog("")
	require.NoError(t, err)

	_, _, err = cat.Render("no_such_template", nil)
	assert.Error(t, err)
}

func TestRenderMissingKey(t *testing.T) {
	cat, err := LoadCatalog("")
	require.NoError(t, err)

	_, _, err = cat.Render(TemplatePasswordReset, map[string]string{"Token": "t"})
	assert.Error(t, err, "missing BaseURL must fail loudly, not send a broken link")
}
