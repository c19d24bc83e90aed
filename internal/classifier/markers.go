package classifier

import (
	"strings"
	"sync"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// MarkerMatcher scans free-text spot attributes (agency name, bill
// code) for configured direct-response markers in a single pass.
type MarkerMatcher struct {
	mu      sync.RWMutex
	matcher *ahocorasick.Matcher
	markers []string
}

// NewMarkerMatcher builds the automaton from the configured markers.
// Empty markers are dropped.
func NewMarkerMatcher(markers []string) *MarkerMatcher {
	m := &MarkerMatcher{}
	m.rebuild(markers)
	return m
}

func (m *MarkerMatcher) rebuild(markers []string) {
	normalized := make([]string, 0, len(markers))
	for _, mk := range markers {
		n := normalizeMarker(mk)
		if n == "" {
			continue
		}
		normalized = append(normalized, n)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers = normalized
	if len(normalized) > 0 {
		m.matcher = ahocorasick.NewStringMatcher(normalized)
	} else {
		m.matcher = nil
	}
}

// Update hot-swaps the marker set without restart.
func (m *MarkerMatcher) Update(markers []string) {
	m.rebuild(markers)
}

// Match reports the first configured marker found in any of the given
// fields. Fields are normalized the same way markers are, so matching
// is case-insensitive and punctuation-tolerant.
func (m *MarkerMatcher) Match(fields ...string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.matcher == nil {
		return "", false
	}

	text := normalizeMarkerText(strings.Join(fields, " "))
	hits := m.matcher.Match([]byte(text))
	if len(hits) == 0 {
		return "", false
	}
	idx := hits[0]
	if idx >= len(m.markers) {
		return "", false
	}
	return m.markers[idx], true
}

// MarkerCount returns the number of configured markers.
func (m *MarkerMatcher) MarkerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.markers)
}

func normalizeMarker(s string) string {
	return normalizeMarkerText(strings.TrimSpace(s))
}

func normalizeMarkerText(text string) string {
	text = strings.ToLower(text)

	var result strings.Builder
	result.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		} else {
			result.WriteByte(' ')
		}
	}
	return result.String()
}
