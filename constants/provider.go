package constants

// MailProvider identifies a connected mailbox backend.
type MailProvider string

const (
	ProviderGmail   MailProvider = "gmail"
	ProviderOutlook MailProvider = "outlook"
	ProviderIMAP    MailProvider = "imap"
)

// ERPType identifies a configured ERP backend.
type ERPType string

const (
	ERPNetSuite ERPType = "netsuite"
	ERPSAP      ERPType = "sap"
	ERPOracle   ERPType = "oracle"
)

// AIProvider identifies the tenant's LLM backend.
type AIProvider string

const (
	AIOpenAI AIProvider = "openai"
	AICustom AIProvider = "custom" // OpenAI-compatible endpoint
)

// NotificationType classifies a notification row.
type NotificationType string

const (
	NotifySuccess NotificationType = "success"
	NotifyFailure NotificationType = "failure"
	NotifyWarning NotificationType = "warning"
)
