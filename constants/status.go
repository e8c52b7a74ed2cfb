package constants

// POStatus is the canonical lifecycle status for rows in purchase_orders.
type POStatus string

// Stable values (store these exact strings in DB).
const (
	POStatusPending    POStatus = "pending"    // created, not yet orchestrated
	POStatusProcessing POStatus = "processing" // pipeline in flight
	POStatusCompleted  POStatus = "completed"  // pushed to ERP
	POStatusFailed     POStatus = "failed"     // terminal; human review required
)
