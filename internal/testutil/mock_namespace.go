// Package testutil provides testing utilities for the management client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// MockEntry is one entity record served by the mock namespace.
// Content is the inner description XML placed in the entry's <content>.
type MockEntry struct {
	Title   string
	Content string
}

// MockNamespace is a configurable mock management namespace for testing.
// It serves Atom feed pages honoring $skip/$top with next-link emission.
type MockNamespace struct {
	server      *httptest.Server
	mu          sync.RWMutex
	collections map[string][]MockEntry
	rawBodies   map[string]string

	// Throttling injection: respond 429 for the next N requests.
	throttleRemaining int
	throttleRetryAfter string

	// Tracking
	RequestCount int
	LastQuery    map[string]string
}

// NewMockNamespace creates a new mock namespace server.
func NewMockNamespace() *MockNamespace {
	mock := &MockNamespace{
		collections: make(map[string][]MockEntry),
		rawBodies:   make(map[string]string),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))

	return mock
}

// URL returns the mock server URL.
func (m *MockNamespace) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockNamespace) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockNamespace) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastQuery = nil
}

// SetCollection configures the entries served for a resource path,
// e.g. "$Resources/queues".
func (m *MockNamespace) SetCollection(path string, entries []MockEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[strings.Trim(path, "/")] = entries
}

// SetRawBody serves a fixed body for a path instead of a feed.
// Useful for malformed-envelope tests.
func (m *MockNamespace) SetRawBody(path, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rawBodies[strings.Trim(path, "/")] = body
}

// ThrottleNext makes the next n requests fail with 429 and the given
// Retry-After value.
func (m *MockNamespace) ThrottleNext(n int, retryAfter string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.throttleRemaining = n
	m.throttleRetryAfter = retryAfter
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockNamespace) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

func (m *MockNamespace) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.RequestCount++
	m.LastQuery = map[string]string{
		"$skip": r.URL.Query().Get("$skip"),
		"$top":  r.URL.Query().Get("$top"),
	}
	throttled := m.throttleRemaining > 0
	if throttled {
		m.throttleRemaining--
	}
	retryAfter := m.throttleRetryAfter
	m.mu.Unlock()

	if throttled {
		if retryAfter != "" {
			w.Header().Set("Retry-After", retryAfter)
		}
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}

	path := strings.Trim(r.URL.Path, "/")

	m.mu.RLock()
	rawBody, hasRaw := m.rawBodies[path]
	entries, hasCollection := m.collections[path]
	m.mu.RUnlock()

	if hasRaw {
		w.Header().Set("Content-Type", "application/atom+xml")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(rawBody))
		return
	}

	if !hasCollection {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`<Error><Code>404</Code><Detail>Entity was not found.</Detail></Error>`))
		return
	}

	skip, _ := strconv.Atoi(r.URL.Query().Get("$skip"))
	top, _ := strconv.Atoi(r.URL.Query().Get("$top"))
	if top <= 0 {
		top = 100
	}

	w.Header().Set("Content-Type", "application/atom+xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(m.buildFeed(path, entries, skip, top)))
}

// buildFeed renders one Atom feed page over entries at the given window.
func (m *MockNamespace) buildFeed(path string, entries []MockEntry, skip, top int) string {
	var sb strings.Builder
	sb.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom">`)
	fmt.Fprintf(&sb, `<title type="text">%s</title>`, path)

	end := skip + top
	if end > len(entries) {
		end = len(entries)
	}
	if skip > len(entries) {
		skip = len(entries)
	}

	if end < len(entries) {
		fmt.Fprintf(&sb, `<link rel="next" href="%s/%s?$skip=%d&amp;$top=%d"/>`,
			m.server.URL, path, end, top)
	}

	for i := skip; i < end; i++ {
		fmt.Fprintf(&sb,
			`<entry><id>%s/%s/%s</id><title type="text">%s</title><content type="application/xml">%s</content></entry>`,
			m.server.URL, path, entries[i].Title, entries[i].Title, entries[i].Content)
	}

	sb.WriteString(`</feed>`)
	return sb.String()
}

// QueueEntry builds a well-formed queue record for the mock namespace.
func QueueEntry(name string, maxDeliveryCount int) MockEntry {
	return MockEntry{
		Title: name,
		Content: fmt.Sprintf(
			`<QueueDescription><LockDuration>PT1M</LockDuration><MaxDeliveryCount>%d</MaxDeliveryCount><Status>Active</Status></QueueDescription>`,
			maxDeliveryCount),
	}
}

// MalformedEntry builds an undecodable record for drop tests.
func MalformedEntry(name string) MockEntry {
	return MockEntry{
		Title:   name,
		Content: `<QueueDescription><LockDuration>`,
	}
}
