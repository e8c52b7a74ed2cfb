package entity

import "time"

// Attachment is one file attached to a candidate email.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EmailMessage is the provider-independent view of a candidate email.
type EmailMessage struct {
	ProviderID  string // provider-specific message ID, used to mark processed
	Subject     string
	From        string
	Body        string
	ReceivedAt  time.Time
	Attachments []Attachment
}
