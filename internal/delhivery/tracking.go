package delhivery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ScanEvent is one entry of a shipment's movement history, newest first.
type ScanEvent struct {
	Date        string `json:"date"`
	Status      string `json:"status"`
	Location    string `json:"location"`
	Remarks     string `json:"remarks"`
	Description string `json:"description"`
}

// TrackingInfo is the decoded tracking response for a single waybill.
type TrackingInfo struct {
	Waybill              string      `json:"waybill"`
	Status               string      `json:"status"`
	ExpectedDeliveryDate string      `json:"expected_delivery_date,omitempty"`
	Scans                []ScanEvent `json:"scans"`
	PublicURL            string      `json:"public_url"`
}

// Track fetches shipment status by waybill, or by order reference when the
// waybill is blank.
func (c *Client) Track(ctx context.Context, waybill, refID string) (*TrackingInfo, error) {
	q := url.Values{}
	switch {
	case waybill != "":
		q.Set("waybill", waybill)
	case refID != "":
		q.Set("ref_ids", refID)
	default:
		return nil, fmt.Errorf("track: waybill or reference id required")
	}

	trackURL := c.cfg.TrackingURL + "/api/v1/packages/json/?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build tracking request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(c.http, req)
	if err != nil {
		return nil, fmt.Errorf("tracking call failed: %w", err)
	}

	if resp.status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.status != http.StatusOK {
		return nil, fmt.Errorf("tracking returned %d", resp.status)
	}

	raw, err := decodeBody(resp.body)
	if err != nil {
		return nil, err
	}
	return parseTracking(raw, waybill)
}

// parseTracking maps ShipmentData[0].Shipment into TrackingInfo. Scans come
// oldest-first from the carrier and are reversed so callers see the latest
// event first.
func parseTracking(raw map[string]any, waybill string) (*TrackingInfo, error) {
	shipmentData, _ := raw["ShipmentData"].([]any)
	if len(shipmentData) == 0 {
		return nil, ErrNotFound
	}
	entry, _ := shipmentData[0].(map[string]any)
	shipment, _ := entry["Shipment"].(map[string]any)
	if shipment == nil {
		return nil, ErrNotFound
	}

	if waybill == "" {
		waybill, _ = shipment["AWB"].(string)
	}

	info := &TrackingInfo{
		Waybill: waybill,
		Status:  "In Transit",
	}
	if status, ok := shipment["Status"].(map[string]any); ok {
		if s, ok := status["Status"].(string); ok && s != "" {
			info.Status = s
		}
	}
	if edd, ok := shipment["ExpectedDeliveryDate"].(string); ok {
		info.ExpectedDeliveryDate = edd
	}

	scans, _ := shipment["Scans"].([]any)
	for i := len(scans) - 1; i >= 0; i-- {
		wrapper, _ := scans[i].(map[string]any)
		detail, _ := wrapper["ScanDetail"].(map[string]any)
		if detail == nil {
			continue
		}
		info.Scans = append(info.Scans, ScanEvent{
			Date:        str(detail["ScanDateTime"]),
			Status:      str(detail["Scan"]),
			Location:    str(detail["ScannedLocation"]),
			Remarks:     str(detail["StatusCode"]),
			Description: str(detail["Instructions"]),
		})
	}

	if waybill != "" {
		info.PublicURL = "https://www.delhivery.com/track/package/" + url.PathEscape(waybill)
	}
	return info, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
