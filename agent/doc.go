// Package agent provides a conversational facade over the orchestration
// core. The package focuses on three concerns:
//
//  1. Source registry management (Register, Unregister, Sources)
//  2. Conversation state (history, persistence, token estimation)
//  3. Multi-source question answering via the shared orchestrator (Ask)
//
// Design principles:
//   - Minimal hidden global state, explicit wiring via Options
//   - Deterministic fan-out, sources are queried in registration order
//   - Observability, message and source lifecycle events are logged
//
// The package intentionally keeps cache, gate and timeout mechanics inside
// the orchestrator package; the agent only layers identity, history and
// registry semantics on top.
package agent
