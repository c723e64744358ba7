// internal/workers/intake/estimate-request/handler.go
package estimaterequest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	httpclient "quote-intake/internal/common/http"
	"quote-intake/internal/common/logger"
	"quote-intake/internal/common/metrics"
	"quote-intake/internal/common/observability"
	"quote-intake/internal/models"
)

const (
	TaskType     = "estimate-request"
	estimatePath = "/api/estimate"
)

var (
	ErrEstimateUnavailable = errors.New("ESTIMATE_UNAVAILABLE")
	ErrEstimateRejected    = errors.New("ESTIMATE_REJECTED")
)

type Handler struct {
	config *Config
	client *httpclient.Client
	obs    *observability.Observability
	logger logger.Logger
}

func NewHandler(config *Config, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: httpclient.NewClient(config.Timeout).WithRetries(config.MaxRetries, config.RetryDelay),
		obs:    obs,
		logger: log.WithFields(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// RequestEstimate never fails: any problem yields the fallback estimate.
func (h *Handler) RequestEstimate(ctx context.Context, draft models.DraftSubmission, fileNames []string) models.Estimate {
	start := time.Now()

	out, err := h.execute(ctx, buildInput(draft, fileNames))
	if err != nil {
		h.obs.RecordCall(ctx, TaskType, "fallback", time.Since(start))
		metrics.EstimateResults.WithLabelValues("fallback").Inc()
		h.logger.Warn("estimate unavailable, using fallback", map[string]interface{}{
			"demolitionType": draft.DemolitionType,
			"error":          err.Error(),
		})
		return models.FallbackEstimate()
	}

	h.obs.RecordCall(ctx, TaskType, "success", time.Since(start))
	metrics.EstimateResults.WithLabelValues("success").Inc()
	h.logger.Info("estimate received", map[string]interface{}{
		"demolitionType": draft.DemolitionType,
		"fileCount":      len(fileNames),
	})
	return models.Estimate{Text: out.Estimate, Success: true}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	headers := map[string]string{}
	if h.config.APIKey != "" {
		headers["Authorization"] = "Bearer " + h.config.APIKey
	}

	var out Output
	if err := h.client.PostJSON(ctx, h.config.BaseURL+estimatePath, headers, input, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEstimateUnavailable, err)
	}

	out.Estimate = strings.TrimSpace(out.Estimate)
	if !out.Success || out.Estimate == "" {
		return nil, fmt.Errorf("%w: success=%t", ErrEstimateRejected, out.Success)
	}
	return &out, nil
}

func buildInput(d models.DraftSubmission, fileNames []string) *Input {
	names := fileNames
	if names == nil {
		names = []string{}
	}
	input := &Input{
		Timeframe:      d.Timeframe,
		DemolitionType: d.DemolitionType,
		Street:         d.Street,
		City:           d.City,
		State:          d.State,
		Zip:            d.Zip,
		Description:    d.Description,
		CashOffer:      d.CashOffer,
		FileNames:      names,
	}
	if d.DemolitionType == models.DemoOther {
		input.OtherDemoType = d.OtherDemoType
	}
	if models.ShowsSquareFootage(d.DemolitionType) {
		input.SquareFootage = d.SquareFootage
	}
	return input
}
