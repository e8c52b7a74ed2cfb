package erp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

type netsuiteAdapter struct {
	client *http.Client
}

func (a *netsuiteAdapter) Push(ctx context.Context, sys *entity.ERPSystem, po *entity.PurchaseOrder) entity.PushResult {
	items := make([]map[string]any, 0)
	for _, it := range lineItems(po) {
		items = append(items, map[string]any{
			"item":     it.Description,
			"quantity": it.Quantity,
			"rate":     it.UnitPrice,
			"amount":   it.TotalPrice,
		})
	}
	payload := map[string]any{
		"entity":   map[string]any{"internalId": netsuiteVendorID(po.VendorName)},
		"trandate": time.Now().UTC().Format("2006-01-02"),
		"memo":     fmt.Sprintf("PO %s - Auto-generated from email", po.PONumber),
		"item":     map[string]any{"list": items},
	}

	status, body, err := doRequest(ctx, a.client, http.MethodPost,
		strings.TrimRight(sys.Endpoint, "/")+"/services/rest/record/v1/purchaseorder",
		map[string]string{
			"Authorization":    "Bearer " + sys.Credentials.Token,
			"NetSuite-Account": sys.Credentials.AccountID,
		}, payload)
	if err != nil {
		return entity.PushResult{Success: false, Error: err.Error()}
	}
	if !ok(status) {
		return entity.PushResult{Success: false, Error: fmt.Sprintf("NetSuite error: %s", body)}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Warn("erp.netsuite.decode_response", "error", err)
	}
	return entity.PushResult{Success: true, ERPID: result.ID}
}

func (a *netsuiteAdapter) TestConnection(ctx context.Context, sys *entity.ERPSystem) entity.TestResult {
	status, body, err := doRequest(ctx, a.client, http.MethodGet,
		strings.TrimRight(sys.Endpoint, "/")+"/services/rest/record/v1/employee",
		map[string]string{
			"Authorization":    "Bearer " + sys.Credentials.Token,
			"NetSuite-Account": sys.Credentials.AccountID,
		}, nil)
	if err != nil {
		return entity.TestResult{Success: false, Error: err.Error()}
	}
	if !ok(status) {
		return entity.TestResult{Success: false, Error: fmt.Sprintf("Connection failed: %s", body)}
	}
	return entity.TestResult{Success: true, Details: map[string]any{"status": "Connected"}}
}

// netsuiteVendorID derives the record internal ID from the vendor name.
// A lookup table or API call would normally back this.
func netsuiteVendorID(vendorName string) string {
	return strings.Join(strings.Fields(strings.ToLower(vendorName)), "-")
}
