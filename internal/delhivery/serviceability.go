package delhivery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Serviceability describes what the carrier supports for one pincode.
type Serviceability struct {
	PostalCode  string `json:"postal_code"`
	Serviceable bool   `json:"serviceable"`
	District    string `json:"district,omitempty"`
	StateCode   string `json:"state_code,omitempty"`
	COD         bool   `json:"cod"`
	Prepaid     bool   `json:"prepaid"`
	Cash        bool   `json:"cash"`
	Pickup      bool   `json:"pickup"`
	Replacement bool   `json:"replacement"`
}

// CheckServiceability asks the carrier whether a pincode is deliverable and
// which payment modes it supports. An empty delivery_codes list means the
// pincode is simply not serviceable, not an error.
func (c *Client) CheckServiceability(ctx context.Context, pincode string) (*Serviceability, error) {
	checkURL := c.cfg.BaseURL + "/c/api/pin-codes/json/?filter_codes=" + url.QueryEscape(pincode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, checkURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build serviceability request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(c.http, req)
	if err != nil {
		return nil, fmt.Errorf("serviceability call failed: %w", err)
	}

	if resp.status != http.StatusOK {
		return nil, fmt.Errorf("serviceability returned %d", resp.status)
	}

	raw, err := decodeBody(resp.body)
	if err != nil {
		return nil, err
	}

	codes, _ := raw["delivery_codes"].([]any)
	if len(codes) == 0 {
		return &Serviceability{PostalCode: pincode}, nil
	}
	entry, _ := codes[0].(map[string]any)
	pc, _ := entry["postal_code"].(map[string]any)
	if pc == nil {
		return &Serviceability{PostalCode: pincode}, nil
	}

	return &Serviceability{
		PostalCode:  pincode,
		Serviceable: true,
		District:    str(pc["district"]),
		StateCode:   str(pc["state_code"]),
		COD:         flag(pc["cod"]),
		Prepaid:     flag(pc["pre_paid"]),
		Cash:        flag(pc["cash"]),
		Pickup:      flag(pc["pickup"]),
		Replacement: flag(pc["repl"]),
	}, nil
}

func flag(v any) bool {
	s, _ := v.(string)
	return s == "Y"
}
