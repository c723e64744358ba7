// internal/workers/intake/address-suggest/handler.go
package addresssuggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	httpclient "quote-intake/internal/common/http"
	"quote-intake/internal/common/logger"
	"quote-intake/internal/common/metrics"
	"quote-intake/internal/common/observability"
	"quote-intake/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	TaskType       = "address-suggest"
	cacheKeyPrefix = "addr:suggest:"
)

var ErrSuggestUnavailable = errors.New("ADDRESS_SUGGEST_UNAVAILABLE")

type Handler struct {
	config *Config
	client *httpclient.Client
	cache  redis.Cmdable
	obs    *observability.Observability
	logger logger.Logger
}

// NewHandler builds the suggestion client. cache and obs may be nil.
func NewHandler(config *Config, cache redis.Cmdable, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: httpclient.NewClient(config.Timeout),
		cache:  cache,
		obs:    obs,
		logger: log.WithFields(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// FetchSuggestions returns up to Limit candidate addresses for text. Short
// queries and every failure yield an empty list.
func (h *Handler) FetchSuggestions(ctx context.Context, text string) []models.AddressSuggestion {
	query := normalizeQuery(text)
	if len([]rune(query)) < h.config.MinQueryLength {
		metrics.AddressQueries.WithLabelValues("skipped").Inc()
		return []models.AddressSuggestion{}
	}

	if cached, ok := h.fromCache(ctx, query); ok {
		metrics.AddressQueries.WithLabelValues("cache_hit").Inc()
		return cached
	}

	start := time.Now()
	suggestions, err := h.execute(ctx, query)
	if err != nil {
		h.obs.RecordCall(ctx, TaskType, "error", time.Since(start))
		metrics.AddressQueries.WithLabelValues("error").Inc()
		h.logger.Warn("address suggestion lookup failed, returning empty list", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return []models.AddressSuggestion{}
	}
	h.obs.RecordCall(ctx, TaskType, "success", time.Since(start))
	metrics.AddressQueries.WithLabelValues("success").Inc()

	h.toCache(ctx, query, suggestions)
	return suggestions
}

func (h *Handler) execute(ctx context.Context, query string) ([]models.AddressSuggestion, error) {
	var resp apiResponse
	if err := h.client.GetJSON(ctx, h.buildURL(query), nil, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSuggestUnavailable, err)
	}

	out := make([]models.AddressSuggestion, 0, h.config.Limit)
	seen := make(map[string]bool)
	for _, r := range resp.Results {
		s, ok := toSuggestion(r)
		if !ok || seen[s.Formatted] {
			continue
		}
		seen[s.Formatted] = true
		out = append(out, s)
		if len(out) == h.config.Limit {
			break
		}
	}

	h.logger.Debug("address suggestions fetched", map[string]interface{}{
		"query":       query,
		"resultCount": len(out),
	})
	return out, nil
}

func (h *Handler) buildURL(query string) string {
	params := url.Values{}
	params.Set("text", query)
	params.Set("limit", strconv.Itoa(h.config.Limit))
	params.Set("format", "json")
	params.Set("filter", "countrycode:us")
	if h.config.APIKey != "" {
		params.Set("apiKey", h.config.APIKey)
	}
	sep := "?"
	if strings.Contains(h.config.BaseURL, "?") {
		sep = "&"
	}
	return h.config.BaseURL + sep + params.Encode()
}

// toSuggestion drops entries without a street line or display string.
func toSuggestion(r apiResult) (models.AddressSuggestion, bool) {
	line1 := strings.TrimSpace(r.AddressLine1)
	if line1 == "" {
		line1 = strings.TrimSpace(strings.TrimSpace(r.HouseNumber) + " " + strings.TrimSpace(r.Street))
	}
	formatted := strings.TrimSpace(r.Formatted)
	if line1 == "" || formatted == "" {
		return models.AddressSuggestion{}, false
	}

	state := r.StateCode
	if state == "" {
		state = r.State
	}

	return models.AddressSuggestion{
		Line1:      line1,
		City:       strings.TrimSpace(r.City),
		State:      strings.ToUpper(strings.TrimSpace(state)),
		PostalCode: strings.TrimSpace(r.Postcode),
		Formatted:  formatted,
	}, true
}

func normalizeQuery(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func cacheKey(query string) string {
	return cacheKeyPrefix + strings.ToLower(query)
}

func (h *Handler) fromCache(ctx context.Context, query string) ([]models.AddressSuggestion, bool) {
	if h.cache == nil {
		return nil, false
	}
	raw, err := h.cache.Get(ctx, cacheKey(query)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			h.logger.Warn("suggestion cache read failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}
	var out []models.AddressSuggestion
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false
	}
	return out, true
}

func (h *Handler) toCache(ctx context.Context, query string, suggestions []models.AddressSuggestion) {
	if h.cache == nil || h.config.CacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(suggestions)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, cacheKey(query), payload, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("suggestion cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
