package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPVerifier calls the external photo-verification service. The service
// compares the submitted photo against the reference on record and answers
// with a verdict; the core only cares about the pass/fail contract.
type HTTPVerifier struct {
	url    string
	client *http.Client
}

func NewHTTPVerifier(url string, timeout time.Duration) *HTTPVerifier {
	return &HTTPVerifier{url: url, client: &http.Client{Timeout: timeout}}
}

// Verify returns nil when the service verifies the photo and an error
// carrying the stated reason otherwise.
func (v *HTTPVerifier) Verify(ctx context.Context, photoRef, referencePhotoRef string) error {
	body, err := json.Marshal(map[string]string{
		"photoRef":          photoRef,
		"referencePhotoRef": referencePhotoRef,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("verification service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("verification service: status %d", resp.StatusCode)
	}

	var verdict struct {
		Verified bool   `json:"verified"`
		Reason   string `json:"reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return fmt.Errorf("verification service: decode: %w", err)
	}
	if !verdict.Verified {
		if verdict.Reason == "" {
			return errors.New("photo did not match reference")
		}
		return errors.New(verdict.Reason)
	}
	return nil
}
