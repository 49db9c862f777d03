package verify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVerifyAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "submitted", req["photoRef"])
		require.Equal(t, "reference", req["referencePhotoRef"])
		json.NewEncoder(w).Encode(map[string]any{"verified": true})
	}))
	defer srv.Close()

	v := NewHTTPVerifier(srv.URL, time.Second)
	require.NoError(t, v.Verify(context.Background(), "submitted", "reference"))
}

func TestVerifyRejectedWithReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"verified": false, "reason": "face mismatch"})
	}))
	defer srv.Close()

	v := NewHTTPVerifier(srv.URL, time.Second)
	err := v.Verify(context.Background(), "submitted", "reference")
	require.EqualError(t, err, "face mismatch")
}

func TestVerifyServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	v := NewHTTPVerifier(srv.URL, time.Second)
	require.Error(t, v.Verify(context.Background(), "submitted", "reference"))
}
