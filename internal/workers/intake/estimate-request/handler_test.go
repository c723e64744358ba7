// internal/workers/intake/estimate-request/handler_test.go
package estimaterequest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"quote-intake/internal/common/logger"
	"quote-intake/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig(baseURL string) *Config {
	return &Config{
		BaseURL:    baseURL,
		APIKey:     "secret",
		Timeout:    200 * time.Millisecond,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	}
}

func sampleDraft() models.DraftSubmission {
	return models.DraftSubmission{
		Email:          "a@b.com",
		Timeframe:      models.TimeframeASAP,
		DemolitionType: models.DemoPool,
		Street:         "123 Main St",
		City:           "Tampa",
		State:          "FL",
		Zip:            "33601",
		SquareFootage:  "1200",
		Description:    "In-ground pool",
		CashOffer:      true,
		Phone:          "8135551234",
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_RequestEstimate_Success(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/estimate", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"estimate":" $8,000 - $12,000 ","success":true}`))
	}))
	defer server.Close()

	h := NewHandler(createTestConfig(server.URL), nil, logger.NewTestLogger(t))
	got := h.RequestEstimate(context.Background(), sampleDraft(), []string{"pool.jpg", "survey.pdf"})

	assert.Equal(t, models.Estimate{Text: "$8,000 - $12,000", Success: true}, got)

	assert.Equal(t, "Swimming Pool Removal", received["demolitionType"])
	assert.Equal(t, []interface{}{"pool.jpg", "survey.pdf"}, received["fileNames"])
	assert.Equal(t, true, received["cashOffer"])
	// contact details and hidden fields stay out of the estimate request
	assert.NotContains(t, received, "email")
	assert.NotContains(t, received, "phone")
	assert.NotContains(t, received, "squareFootage")
}

// ==========================
// Fallback Tests
// ==========================

func TestHandler_RequestEstimate_Fallbacks(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "service reports failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"estimate":"n/a","success":false}`))
			},
		},
		{
			name: "blank estimate",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"estimate":"  ","success":true}`))
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "undecodable body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(500 * time.Millisecond)
				_, _ = w.Write([]byte(`{"estimate":"late","success":true}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			h := NewHandler(createTestConfig(server.URL), nil, logger.NewNoOpLogger())
			got := h.RequestEstimate(context.Background(), sampleDraft(), nil)

			assert.Equal(t, models.Estimate{Text: "Contact for estimate", Success: false}, got)
		})
	}
}

func TestHandler_RequestEstimate_NetworkErrorFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	h := NewHandler(createTestConfig(url), nil, logger.NewNoOpLogger())
	got := h.RequestEstimate(context.Background(), sampleDraft(), nil)

	assert.Equal(t, models.FallbackEstimateText, got.Text)
	assert.False(t, got.Success)
}

func TestHandler_RequestEstimate_RetriesOnce(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"estimate":"$3,000","success":true}`))
	}))
	defer server.Close()

	h := NewHandler(createTestConfig(server.URL), nil, logger.NewNoOpLogger())
	got := h.RequestEstimate(context.Background(), sampleDraft(), nil)

	assert.True(t, got.Success)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestBuildInput(t *testing.T) {
	d := sampleDraft()
	d.DemolitionType = models.DemoResidential
	d.OtherDemoType = "ignored"

	in := buildInput(d, nil)
	assert.Equal(t, "1200", in.SquareFootage)
	assert.Empty(t, in.OtherDemoType)
	assert.NotNil(t, in.FileNames)

	d.DemolitionType = models.DemoOther
	in = buildInput(d, []string{"a.png"})
	assert.Equal(t, "ignored", in.OtherDemoType)
	assert.Empty(t, in.SquareFootage)
}
