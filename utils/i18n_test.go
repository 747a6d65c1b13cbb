package utils

import (
	"jobmail/locales"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestI18n(t *testing.T) {
	require.NoError(t, InitI18n(locales.FS))

	assert.Equal(t, "✅ Draft generated", T(GetLocalizer("en"), "status_draft_generated"))
	assert.Equal(t, "✅ Email sent. Ready for next JD.", T(nil, "status_email_sent"))
	assert.NotEqual(t, T(GetLocalizer("en"), "status_please_wait"), T(GetLocalizer("ja"), "status_please_wait"))
	assert.Equal(t, "no_such_message", T(GetLocalizer("en"), "no_such_message"))

	assert.True(t, IsSupportedLanguage("ja"))
	assert.False(t, IsSupportedLanguage("de"))
}
