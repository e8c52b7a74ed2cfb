package erp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

const oracleAPIPath = "/fscmRestApi/resources/11.13.18.05/purchaseOrders"

type oracleAdapter struct {
	client *http.Client
}

func (a *oracleAdapter) Push(ctx context.Context, sys *entity.ERPSystem, po *entity.PurchaseOrder) entity.PushResult {
	items := make([]map[string]any, 0)
	for i, it := range lineItems(po) {
		items = append(items, map[string]any{
			"LineNumber":      i + 1,
			"ItemDescription": it.Description,
			"Quantity":        it.Quantity,
			"UnitPrice":       it.UnitPrice,
		})
	}
	currency := po.Currency
	if currency == "" {
		currency = "USD"
	}
	payload := map[string]any{
		"DocumentNumber": po.PONumber,
		"Supplier":       po.VendorName,
		"CurrencyCode":   currency,
		"lines":          items,
	}

	status, body, err := doRequest(ctx, a.client, http.MethodPost,
		strings.TrimRight(sys.Endpoint, "/")+oracleAPIPath,
		map[string]string{
			"Authorization": "Bearer " + sys.Credentials.Token,
			"Content-Type":  "application/vnd.oracle.adf.resourceitem+json",
		}, payload)
	if err != nil {
		return entity.PushResult{Success: false, Error: err.Error()}
	}
	if !ok(status) {
		return entity.PushResult{Success: false, Error: fmt.Sprintf("Oracle error: %s", body)}
	}

	var result struct {
		PurchaseOrderID json.Number `json:"PurchaseOrderId"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Warn("erp.oracle.decode_response", "error", err)
	}
	return entity.PushResult{Success: true, ERPID: result.PurchaseOrderID.String()}
}

func (a *oracleAdapter) TestConnection(ctx context.Context, sys *entity.ERPSystem) entity.TestResult {
	status, body, err := doRequest(ctx, a.client, http.MethodGet,
		strings.TrimRight(sys.Endpoint, "/")+oracleAPIPath+"?limit=1",
		map[string]string{
			"Authorization": "Bearer " + sys.Credentials.Token,
		}, nil)
	if err != nil {
		return entity.TestResult{Success: false, Error: err.Error()}
	}
	if !ok(status) {
		return entity.TestResult{Success: false, Error: fmt.Sprintf("Connection failed: %s", body)}
	}
	return entity.TestResult{Success: true, Details: map[string]any{"status": "Connected"}}
}
