package source

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/querymesh/core"
)

// Entry is one snippet held by a Memory source.
type Entry struct {
	ID       string
	Content  string
	Score    float64
	Metadata map[string]any
}

// Memory is a naive process-local retrieval source. It offers:
//  1. Stored snippets managed via Store and Delete
//  2. A Source implementation answering queries with the matching entries
//
// Concurrency: protected by RWMutex.
// Matching: linear scan with case-insensitive substring matching assigning a
// constant score of 1.0 to every hit, ordered by insertion. Suitable only for
// tests / demos; swap for a vector index for production retrieval.
type Memory struct {
	name  string
	limit int

	mu      sync.RWMutex
	entries []Entry
	seq     int
}

// NewMemory creates an empty Memory source. The default result limit is 10;
// queries can lower or raise it per call via the "limit" parameter.
func NewMemory(name string) *Memory {
	return &Memory{name: name, limit: 10}
}

// WithLimit overrides the default result limit (chainable).
func (m *Memory) WithLimit(limit int) *Memory {
	m.limit = limit
	return m
}

// Store appends a new snippet and returns its generated id.
func (m *Memory) Store(content string, metadata map[string]any) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := fmt.Sprintf("mem_%d", m.seq)
	m.seq++

	md := make(map[string]any, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}

	m.entries = append(m.entries, Entry{ID: id, Content: content, Score: 1.0, Metadata: md})

	return id
}

// Delete removes a stored snippet by id.
func (m *Memory) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, e := range m.entries {
		if e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("memory not found")
}

// Len returns the number of stored snippets.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// Name implements Source.
func (m *Memory) Name() string { return m.name }

// Fetch implements Source. It returns the entries whose content contains the
// query text, up to the limit; the "limit" query parameter overrides the
// default per call. No matches is a successful outcome with an empty slice.
func (m *Memory) Fetch(_ context.Context, query core.Query) (any, error) {
	limit := m.limit
	if v, ok := query.Params["limit"]; ok {
		switch n := v.(type) {
		case int:
			limit = n
		case float64:
			limit = int(n)
		}
	}

	if limit <= 0 {
		return []Entry{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(query.Text)
	results := make([]Entry, 0, limit)

	for _, e := range m.entries {
		if len(results) >= limit {
			break
		}

		if needle == "" || strings.Contains(strings.ToLower(e.Content), needle) {
			md := make(map[string]any, len(e.Metadata))
			for k, v := range e.Metadata {
				md[k] = v
			}

			results = append(results, Entry{ID: e.ID, Content: e.Content, Score: e.Score, Metadata: md})
		}
	}

	return results, nil
}
