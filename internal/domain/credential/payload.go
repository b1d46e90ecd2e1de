package credential

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

const legacyPrefix = "vpallet"

// Payload is the content encoded into a voucher's QR image
type Payload struct {
	ID     string `json:"id"`
	Hash   string `json:"hash"`
	Number string `json:"numero_vale,omitempty"`
	URL    string `json:"url,omitempty"`
}

// NewPayload builds the canonical payload of a voucher.
// The URL points at the public verification endpoint.
func NewPayload(id, token, number, baseURL string) Payload {
	return Payload{
		ID:     id,
		Hash:   token,
		Number: number,
		URL:    VerifyURL(baseURL, id, token),
	}
}

// VerifyURL returns the public verification address of a voucher
func VerifyURL(baseURL, id, token string) string {
	return fmt.Sprintf("%s/api/v1/verify/%s?hash=%s",
		strings.TrimRight(baseURL, "/"), url.PathEscape(id), url.QueryEscape(token))
}

// JSON renders the canonical payload
func (p Payload) JSON() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return string(b), nil
}

// Legacy renders the compact "vpallet:<id>:<token>" form
func (p Payload) Legacy() string {
	return legacyPrefix + ":" + p.ID + ":" + p.Hash
}

// Parse decodes scanned QR content in either the JSON or the legacy form.
func Parse(raw string) (Payload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Payload{}, fmt.Errorf("%w: empty", ErrMalformedPayload)
	}

	if strings.HasPrefix(raw, "{") {
		var p Payload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if p.ID == "" || p.Hash == "" {
			return Payload{}, fmt.Errorf("%w: id and hash are required", ErrMalformedPayload)
		}
		return p, nil
	}

	parts := strings.Split(raw, ":")
	if len(parts) != 3 || parts[0] != legacyPrefix {
		return Payload{}, fmt.Errorf("%w: expected %s:<id>:<hash>", ErrMalformedPayload, legacyPrefix)
	}
	if parts[1] == "" || parts[2] == "" {
		return Payload{}, fmt.Errorf("%w: id and hash are required", ErrMalformedPayload)
	}
	return Payload{ID: parts[1], Hash: parts[2]}, nil
}
