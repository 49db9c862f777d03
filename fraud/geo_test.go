package fraud

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	country string
	err     error
	calls   int
}

func (s *stubResolver) ResolveCountry(context.Context, string) (string, error) {
	s.calls++
	return s.country, s.err
}

func TestRoundRobinSpreadsCalls(t *testing.T) {
	a := &stubResolver{country: "India"}
	b := &stubResolver{country: "India"}
	c := &stubResolver{country: "India"}
	rr := NewRoundRobin(a, b, c)

	for i := 0; i < 6; i++ {
		country, err := rr.ResolveCountry(context.Background(), "1.2.3.4")
		require.NoError(t, err)
		require.Equal(t, "India", country)
	}
	require.Equal(t, 2, a.calls)
	require.Equal(t, 2, b.calls)
	require.Equal(t, 2, c.calls)
}

func TestRoundRobinSurfacesProviderError(t *testing.T) {
	failing := &stubResolver{err: errors.New("quota exhausted")}
	ok := &stubResolver{country: "India"}
	rr := NewRoundRobin(failing, ok)

	_, err := rr.ResolveCountry(context.Background(), "1.2.3.4")
	require.Error(t, err)

	// The next call lands on the healthy provider.
	country, err := rr.ResolveCountry(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	require.Equal(t, "India", country)
}
