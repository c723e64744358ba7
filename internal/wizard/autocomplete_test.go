// internal/wizard/autocomplete_test.go
package wizard

import (
	"testing"
	"time"

	"quote-intake/internal/common/errors"
	"quote-intake/internal/common/logger"
	"quote-intake/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAutocomplete(t *testing.T, s Suggester) *Autocomplete {
	t.Helper()
	a := NewAutocomplete(s, 10*time.Millisecond, time.Second, logger.NewNoOpLogger())
	t.Cleanup(a.Close)
	return a
}

func waitForSuggestions(t *testing.T, a *Autocomplete, line1 string) {
	t.Helper()
	require.Eventually(t, func() bool {
		s := a.Suggestions()
		return len(s) == 1 && s[0].Line1 == line1
	}, time.Second, 5*time.Millisecond)
}

func TestAutocomplete_ShortTextIsNotQueried(t *testing.T) {
	s := newFakeSuggester()
	a := newTestAutocomplete(t, s)

	a.Input("12")
	a.Input(" 1 ")
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, s.Queries())
	assert.Empty(t, a.Suggestions())
}

func TestAutocomplete_DebouncesKeystrokes(t *testing.T) {
	s := newFakeSuggester()
	a := newTestAutocomplete(t, s)

	for _, text := range []string{"123", "123 ", "123 M", "123 Ma", "123 Main"} {
		a.Input(text)
	}
	waitForSuggestions(t, a, "123 Main")

	assert.Equal(t, []string{"123 Main"}, s.Queries())
}

func TestAutocomplete_SelectionSuppressesSameText(t *testing.T) {
	s := newFakeSuggester()
	a := newTestAutocomplete(t, s)

	a.Input("123 Main")
	waitForSuggestions(t, a, "123 Main")

	picked, err := a.Select(0)
	require.NoError(t, err)
	assert.Equal(t, "123 Main", picked.Line1)
	assert.True(t, a.Selected())
	assert.Empty(t, a.Suggestions())

	a.Input("123 Main")
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, s.Queries(), 1)
	assert.True(t, a.Selected())

	a.Input("123 Main St")
	assert.False(t, a.Selected())
	waitForSuggestions(t, a, "123 Main St")
	assert.Len(t, s.Queries(), 2)
}

func TestAutocomplete_SelectionWinsOverLateResponse(t *testing.T) {
	s := newFakeSuggester()
	a := newTestAutocomplete(t, s)

	a.Input("123 Main")
	waitForSuggestions(t, a, "123 Main")

	gate := s.block("123 Main S")
	a.Input("123 Main S")
	require.Eventually(t, func() bool { return len(s.Queries()) == 2 }, time.Second, 5*time.Millisecond)

	_, err := a.Select(0)
	require.NoError(t, err)
	close(gate)

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, a.Suggestions())
	assert.True(t, a.Selected())
}

func TestAutocomplete_StaleResponseDiscarded(t *testing.T) {
	s := newFakeSuggester()
	a := newTestAutocomplete(t, s)

	gate := s.block("4500 Bay")
	a.Input("4500 Bay")
	require.Eventually(t, func() bool { return len(s.Queries()) == 1 }, time.Second, 5*time.Millisecond)

	a.Input("4500 Bayshore")
	waitForSuggestions(t, a, "4500 Bayshore")

	close(gate)
	time.Sleep(30 * time.Millisecond)
	waitForSuggestions(t, a, "4500 Bayshore")
}

func TestAutocomplete_ShorteningTextDropsPendingLookup(t *testing.T) {
	s := newFakeSuggester()
	a := newTestAutocomplete(t, s)

	gate := s.block("123 Main")
	a.Input("123 Main")
	require.Eventually(t, func() bool { return len(s.Queries()) == 1 }, time.Second, 5*time.Millisecond)

	a.Input("12")
	close(gate)
	time.Sleep(30 * time.Millisecond)

	assert.Empty(t, a.Suggestions())
}

func TestAutocomplete_SelectOutOfRange(t *testing.T) {
	a := newTestAutocomplete(t, newFakeSuggester())

	_, err := a.Select(0)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSuggestionNotFound, errors.CodeOf(err))
}

func TestController_SelectSuggestionFillsAddress(t *testing.T) {
	env := newTestEnv()
	c := newTestController(t, env.deps)

	_, err := c.UpdateDraft(models.DraftPatch{Street: str("123 Main")})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(c.Snapshot().Suggestions) == 1 }, time.Second, 5*time.Millisecond)

	snap, err := c.SelectSuggestion(0)
	require.NoError(t, err)
	assert.Equal(t, "123 Main", snap.Draft.Street)
	assert.Equal(t, "Tampa", snap.Draft.City)
	assert.Equal(t, "FL", snap.Draft.State)
	assert.Equal(t, "33601", snap.Draft.Zip)
	assert.True(t, snap.AddressSelected)
	assert.Empty(t, snap.Suggestions)

	_, err = c.SelectSuggestion(3)
	assert.Equal(t, errors.ErrCodeSuggestionNotFound, errors.CodeOf(err))
}
