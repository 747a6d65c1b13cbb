// Package compose turns a pasted job posting into an email draft.
package compose

import (
	"regexp"
	"strings"
)

// DefaultRole is used when the posting has no labelled role line
const DefaultRole = "Business Analyst"

// SubjectPrefix starts every generated subject line
const SubjectPrefix = "Job Application - "

var (
	emailPattern = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	rolePattern  = regexp.MustCompile(`(?i)(Role|Position|Opening|Job Title)[:\-]\s*([^\n\r]+)`)
)

// Extracted holds the fields pulled out of a posting
type Extracted struct {
	Email string
	Role  string
}

// Extract scans text twice, once for the first email address and once for the
// first "Role:"-style line. The scans are independent; the role falls back to
// DefaultRole.
func Extract(text string) Extracted {
	return Extracted{
		Email: ExtractEmail(text),
		Role:  ExtractRole(text),
	}
}

// ExtractEmail returns the first email-looking substring or ""
func ExtractEmail(text string) string {
	return emailPattern.FindString(text)
}

// ExtractRole returns the trimmed remainder of the first labelled role line
func ExtractRole(text string) string {
	m := rolePattern.FindStringSubmatch(text)
	if m == nil {
		return DefaultRole
	}
	return strings.TrimSpace(m[2])
}

// Subject builds the subject line for role
func Subject(role string) string {
	return SubjectPrefix + role
}
