package models

// Setting keys persisted in settings.json
const (
	KeyAccessPIN       = "ACCESS_PIN"
	KeySendGridAPIKey  = "SENDGRID_API_KEY"
	KeySenderEmail     = "SMTP_EMAIL"
	KeySMTPPassword    = "SMTP_PASSWORD"
	KeySMTPServer      = "SMTP_SERVER"
	KeySMTPPort        = "SMTP_PORT"
	KeyDefaultPhone    = "DEFAULT_PHONE"
	KeyDefaultLinkedIn = "DEFAULT_LINKEDIN"
	KeyDefaultSubject  = "DEFAULT_SUBJECT"
	KeyEmailBody       = "EMAIL_BODY"
)

// DefaultEmailBody is the cover note used until the user edits it in settings
const DefaultEmailBody = `Hello,

I hope this message finds you well. I came across your LinkedIn post regarding the Business Analyst position and would like to express my interest, as the role closely aligns with my experience and skill set.

Please find my resume attached for your review. I would appreciate it if you could let me know the next steps or if you require any additional information to process my application.

Thank you.

Regards`

// Settings is the flat key/value configuration edited on the settings screen
type Settings map[string]string

// DefaultSettings returns a fresh copy of the default key set
func DefaultSettings() Settings {
	return Settings{
		KeyAccessPIN:       "",
		KeySendGridAPIKey:  "",
		KeySenderEmail:     "",
		KeySMTPPassword:    "",
		KeySMTPServer:      "smtp.gmail.com",
		KeySMTPPort:        "587",
		KeyDefaultPhone:    "",
		KeyDefaultLinkedIn: "",
		KeyDefaultSubject:  "Job Application - Business Analyst",
		KeyEmailBody:       DefaultEmailBody,
	}
}

// SecretKeys are masked when settings leave the process
var SecretKeys = []string{KeyAccessPIN, KeySendGridAPIKey, KeySMTPPassword}

// Get returns the value for key, empty when absent
func (s Settings) Get(key string) string {
	return s[key]
}

// Clone returns an independent copy
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Backfill adds every missing default key and reports whether anything was added.
// Existing keys, including unknown ones, are left untouched.
func (s Settings) Backfill() bool {
	added := false
	for k, v := range DefaultSettings() {
		if _, ok := s[k]; !ok {
			s[k] = v
			added = true
		}
	}
	return added
}

// Masked returns a copy with secret values replaced by a placeholder
func (s Settings) Masked() Settings {
	out := s.Clone()
	for _, k := range SecretKeys {
		if out[k] != "" {
			out[k] = "********"
		}
	}
	return out
}
