// internal/wizard/autocomplete.go
package wizard

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"quote-intake/internal/common/errors"
	"quote-intake/internal/common/logger"
	"quote-intake/internal/common/metrics"
	"quote-intake/internal/models"
)

const minQueryLength = 3

// Autocomplete debounces street-address keystrokes into suggestion lookups.
// A response is applied only while its sequence number is the latest issued
// and no suggestion was selected after it was issued.
type Autocomplete struct {
	suggester Suggester
	window    time.Duration
	timeout   time.Duration
	logger    logger.Logger

	mu           sync.Mutex
	text         string
	seq          uint64
	selections   uint64
	selected     bool
	selectedText string
	suggestions  []models.AddressSuggestion
	timer        *time.Timer
	closed       bool
	inflight     sync.WaitGroup
}

func NewAutocomplete(suggester Suggester, window, timeout time.Duration, log logger.Logger) *Autocomplete {
	return &Autocomplete{
		suggester: suggester,
		window:    window,
		timeout:   timeout,
		logger:    log,
	}
}

// Input records the current street text and restarts the debounce timer.
func (a *Autocomplete) Input(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	if a.selected && text == a.selectedText {
		return
	}
	a.selected = false
	a.text = text

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minQueryLength {
		a.seq++
		a.suggestions = nil
		return
	}
	a.timer = time.AfterFunc(a.window, a.fire)
}

func (a *Autocomplete) fire() {
	a.mu.Lock()
	if a.closed || a.selected {
		a.mu.Unlock()
		return
	}
	a.seq++
	seq, selections, query := a.seq, a.selections, a.text
	a.inflight.Add(1)
	a.mu.Unlock()
	defer a.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	results := a.suggester.FetchSuggestions(ctx, query)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || seq != a.seq || selections != a.selections || a.selected {
		metrics.AddressQueries.WithLabelValues("stale").Inc()
		a.logger.Debug("discarding stale address suggestions", map[string]interface{}{
			"seq":    seq,
			"latest": a.seq,
		})
		return
	}
	a.suggestions = results
}

// Select picks a shown suggestion, hides the list and suppresses lookups
// until the street text is edited away from the selected line.
func (a *Autocomplete) Select(index int) (models.AddressSuggestion, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if index < 0 || index >= len(a.suggestions) {
		return models.AddressSuggestion{}, errors.NewSuggestionNotFoundError(index)
	}
	s := a.suggestions[index]
	a.selected = true
	a.selections++
	a.selectedText = s.Line1
	a.text = s.Line1
	a.suggestions = nil
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	return s, nil
}

// Suggestions returns the visible list.
func (a *Autocomplete) Suggestions() []models.AddressSuggestion {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.suggestions) == 0 {
		return []models.AddressSuggestion{}
	}
	out := make([]models.AddressSuggestion, len(a.suggestions))
	copy(out, a.suggestions)
	return out
}

func (a *Autocomplete) Selected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selected
}

// Reset drops all state and invalidates lookups in flight.
func (a *Autocomplete) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.seq++
	a.text = ""
	a.selected = false
	a.selectedText = ""
	a.suggestions = nil
}

func (a *Autocomplete) Close() {
	a.mu.Lock()
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
	a.inflight.Wait()
}
