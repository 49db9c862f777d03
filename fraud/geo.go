package fraud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Resolver maps an IP address to a country name.
type Resolver interface {
	ResolveCountry(ctx context.Context, ip string) (string, error)
}

// RoundRobin spreads lookups over a set of providers so no single provider
// burns through its quota. Provider errors surface to the caller, which
// treats them as non-fatal.
type RoundRobin struct {
	mu        sync.Mutex
	resolvers []Resolver
	next      int
}

func NewRoundRobin(resolvers ...Resolver) *RoundRobin {
	return &RoundRobin{resolvers: resolvers}
}

func (r *RoundRobin) ResolveCountry(ctx context.Context, ip string) (string, error) {
	r.mu.Lock()
	resolver := r.resolvers[r.next%len(r.resolvers)]
	r.next++
	r.mu.Unlock()
	return resolver.ResolveCountry(ctx, ip)
}

// jsonProvider queries one public geo-IP endpoint returning a flat JSON
// object and extracts the country field.
type jsonProvider struct {
	name      string
	urlFormat string // one %s verb for the IP
	field     string
	client    *http.Client
}

func (p *jsonProvider) ResolveCountry(ctx context.Context, ip string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(p.urlFormat, ip), nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.name, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: status %d", p.name, resp.StatusCode)
	}
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%s: decode: %w", p.name, err)
	}
	country, ok := payload[p.field].(string)
	if !ok || country == "" {
		return "", fmt.Errorf("%s: no %s in response", p.name, p.field)
	}
	return country, nil
}

// DefaultProviders returns the stock rotation of public geo-IP services.
func DefaultProviders(timeout time.Duration) []Resolver {
	client := &http.Client{Timeout: timeout}
	return []Resolver{
		&jsonProvider{name: "ip-api", urlFormat: "http://ip-api.com/json/%s?fields=country", field: "country", client: client},
		&jsonProvider{name: "ipapi.co", urlFormat: "https://ipapi.co/%s/json/", field: "country_name", client: client},
		&jsonProvider{name: "ipwho.is", urlFormat: "https://ipwho.is/%s", field: "country", client: client},
	}
}
