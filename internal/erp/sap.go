package erp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

type sapAdapter struct {
	client *http.Client
}

func (a *sapAdapter) Push(ctx context.Context, sys *entity.ERPSystem, po *entity.PurchaseOrder) entity.PushResult {
	items := make([]map[string]any, 0)
	for i, it := range lineItems(po) {
		items = append(items, map[string]any{
			"PurchaseOrderItem":     strconv.Itoa((i + 1) * 10),
			"Material":              it.Description,
			"PurchaseOrderQuantity": strconv.FormatFloat(it.Quantity, 'f', -1, 64),
			"NetPriceAmount":        strconv.FormatFloat(it.UnitPrice, 'f', -1, 64),
			"NetPriceQuantityUnit":  "EA",
		})
	}
	payload := map[string]any{
		"PurchaseOrder":     po.PONumber,
		"Supplier":          po.VendorName,
		"DocumentDate":      time.Now().UTC().Format("2006-01-02"),
		"PurchaseOrderItem": items,
	}

	status, body, err := doRequest(ctx, a.client, http.MethodPost,
		strings.TrimRight(sys.Endpoint, "/")+"/sap/opu/odata/sap/API_PURCHASEORDER_PROCESS_SRV/A_PurchaseOrder",
		map[string]string{
			"Authorization": "Basic " + sys.Credentials.BasicAuth,
			"X-CSRF-Token":  "fetch",
		}, payload)
	if err != nil {
		return entity.PushResult{Success: false, Error: err.Error()}
	}
	if !ok(status) {
		return entity.PushResult{Success: false, Error: fmt.Sprintf("SAP error: %s", body)}
	}

	var result struct {
		D struct {
			PurchaseOrder string `json:"PurchaseOrder"`
		} `json:"d"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Warn("erp.sap.decode_response", "error", err)
	}
	return entity.PushResult{Success: true, ERPID: result.D.PurchaseOrder}
}

func (a *sapAdapter) TestConnection(ctx context.Context, sys *entity.ERPSystem) entity.TestResult {
	status, body, err := doRequest(ctx, a.client, http.MethodGet,
		strings.TrimRight(sys.Endpoint, "/")+"/sap/opu/odata/sap/API_PURCHASEORDER_PROCESS_SRV/$metadata",
		map[string]string{
			"Authorization": "Basic " + sys.Credentials.BasicAuth,
		}, nil)
	if err != nil {
		return entity.TestResult{Success: false, Error: err.Error()}
	}
	if !ok(status) {
		return entity.TestResult{Success: false, Error: fmt.Sprintf("Connection failed: %s", body)}
	}
	return entity.TestResult{Success: true, Details: map[string]any{"status": "Connected"}}
}
