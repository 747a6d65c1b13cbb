package utils

import (
	"io/fs"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// SupportedLanguages lists the locales shipped in the message files
var SupportedLanguages = []string{"en", "ja"}

var (
	// Bundle is the global translation bundle
	Bundle *i18n.Bundle
	// Localizer is the default localizer
	Localizer *i18n.Localizer
)

// InitI18n loads active.<lang>.toml for every supported language from fsys
func InitI18n(fsys fs.FS) error {
	Bundle = i18n.NewBundle(language.English)
	Bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, lang := range SupportedLanguages {
		if _, err := Bundle.LoadMessageFileFS(fsys, "active."+lang+".toml"); err != nil {
			Log.Warn("Failed to load %s locale: %v", lang, err)
		}
	}

	Localizer = i18n.NewLocalizer(Bundle, language.English.String())

	Log.Debug("i18n system initialized")
	return nil
}

// IsSupportedLanguage reports whether lang has a message file
func IsSupportedLanguage(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// GetLocalizer returns a localizer for the specified language
func GetLocalizer(lang string) *i18n.Localizer {
	if lang == "" {
		lang = "en"
	}
	return i18n.NewLocalizer(Bundle, lang)
}

// T translates a message ID, falling back to the ID itself
func T(localizer *i18n.Localizer, messageID string) string {
	if localizer == nil {
		localizer = Localizer
	}
	if localizer == nil {
		return messageID
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID: messageID,
	})
	if err != nil {
		Log.Debug("Translation error for '%s': %v", messageID, err)
		return messageID
	}
	return msg
}
