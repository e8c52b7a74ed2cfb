package constants

// Stage names one step of the purchase-order processing workflow.
type Stage string

// Stable values (store these exact strings in DB).
const (
	StageEmailDetection Stage = "email_detection"
	StageOCRProcessing  Stage = "ocr_processing"
	StageDataExtraction Stage = "data_extraction"
	StageDataValidation Stage = "data_validation"
	StageERPFormatting  Stage = "erp_formatting"
	StageERPIntegration Stage = "erp_integration"
)

// StageStatus is the status of a single ProcessingLog entry.
type StageStatus string

const (
	StageStarted   StageStatus = "started"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
)
