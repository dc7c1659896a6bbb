package core

import (
	"encoding/json"
	"fmt"
)

// keySep separates the key segments. The unit separator keeps distinct
// (source, text, params) triples from colliding on crafted payloads.
const keySep = "\x1f"

// Query is the immutable unit of work fanned out to every source.
//
// Text carries the raw payload; Params carries optional structured arguments
// for sources that accept them. A Query is treated as a value and must not be
// mutated after it has been issued to an orchestrator.
type Query struct {
	// Text is the raw query payload.
	Text string `json:"text"`

	// Params holds optional structured arguments passed through to the source.
	Params map[string]any `json:"params,omitempty"`
}

// NewQuery creates a Query from its raw text payload.
func NewQuery(text string) Query {
	return Query{Text: text}
}

// NewQueryWithParams creates a Query carrying structured arguments.
func NewQueryWithParams(text string, params map[string]any) Query {
	return Query{Text: text, Params: params}
}

// CacheKey returns the canonical cache identity of this query against the
// named source. Identical payloads always canonicalize to the same key:
// params are serialized as JSON, whose object keys are emitted in sorted
// order.
func (q Query) CacheKey(source string) string {
	if len(q.Params) == 0 {
		return source + keySep + q.Text
	}

	raw, err := json.Marshal(q.Params)
	if err != nil {
		// Params holding unserializable values still need a stable key;
		// fmt prints map keys in sorted order.
		return source + keySep + q.Text + keySep + fmt.Sprintf("%v", q.Params)
	}

	return source + keySep + q.Text + keySep + string(raw)
}
