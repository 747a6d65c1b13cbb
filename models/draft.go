package models

// NoAttachment is the resume choice meaning "send without a file"
const NoAttachment = "(No attachment)"

// Draft is the email being composed on the main screen
type Draft struct {
	Posting string `json:"posting"`
	To      string `json:"to"`
	Cc      string `json:"cc"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Resume  string `json:"resume"`
	Status  string `json:"status"`
}

// HasAttachment reports whether the draft names a resume file
func (d Draft) HasAttachment() bool {
	return d.Resume != "" && d.Resume != NoAttachment
}
