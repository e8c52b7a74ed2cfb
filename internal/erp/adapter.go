// Package erp maps validated purchase orders into target-system payloads and
// submits them. One adapter per ERP type; a non-2xx response is surfaced as a
// failed PushResult with the response body as the error, never as a Go error
// escaping the adapter boundary.
package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/common"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

// Adapter is the per-ERP-type submission contract.
type Adapter interface {
	Push(ctx context.Context, sys *entity.ERPSystem, po *entity.PurchaseOrder) entity.PushResult
	TestConnection(ctx context.Context, sys *entity.ERPSystem) entity.TestResult
}

// Registry selects adapters by the system's tagged type.
type Registry struct {
	client *http.Client
}

func NewRegistry(cfg common.ERPConfig) *Registry {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Registry{client: &http.Client{Timeout: timeout}}
}

func (r *Registry) ForType(t constants.ERPType) (Adapter, error) {
	switch t {
	case constants.ERPNetSuite:
		return &netsuiteAdapter{client: r.client}, nil
	case constants.ERPSAP:
		return &sapAdapter{client: r.client}, nil
	case constants.ERPOracle:
		return &oracleAdapter{client: r.client}, nil
	default:
		return nil, fmt.Errorf("unsupported ERP type: %s", t)
	}
}

// FormatForERP is the pure stage-4 transform: it attaches the ERP envelope
// fields to the extracted data.
func FormatForERP(po *entity.PurchaseOrder) map[string]any {
	out := map[string]any{}
	if po.ExtractedData != nil {
		b, err := json.Marshal(po.ExtractedData)
		if err == nil {
			_ = json.Unmarshal(b, &out)
		}
	}
	out["formattedForERP"] = true
	out["formattedAt"] = time.Now().UTC().Format(time.RFC3339)
	return out
}

// doRequest performs one authenticated HTTP call and returns status and body.
func doRequest(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal payload: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, buf, nil
}

func ok(status int) bool { return status >= 200 && status < 300 }

// lineItems returns the order's extracted line items, or nil.
func lineItems(po *entity.PurchaseOrder) []entity.LineItem {
	if po.ExtractedData == nil {
		return nil
	}
	return po.ExtractedData.LineItems
}
