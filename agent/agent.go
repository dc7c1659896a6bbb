package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/querymesh/core"
	"github.com/hupe1980/querymesh/logging"
	"github.com/hupe1980/querymesh/orchestrator"
	"github.com/hupe1980/querymesh/source"
)

// Options configures an Agent instance.
//
// Use functional options with New to override defaults.
type Options struct {
	// Temperature is carried as agent metadata and validated to lie in
	// [0, 1]. LLM-backed sources configure their own sampling parameters.
	Temperature float64

	// SystemPrompt seeds the conversation history. Defaults to a short
	// assistant persona derived from the agent name.
	SystemPrompt string

	// MaxHistory bounds the conversation history length; the leading system
	// message survives trimming. Zero or negative disables the bound.
	MaxHistory int

	// Logger defaults to the NoOp logger if nil.
	Logger logging.Logger

	// Orchestrator overrides the internally constructed orchestrator,
	// allowing several agents to share one gate and cache.
	Orchestrator *orchestrator.Orchestrator
}

// Agent couples a named source registry with conversation history and
// delegates query execution to an orchestrator. All methods are safe for
// concurrent use.
type Agent struct {
	name        string
	temperature float64
	maxHistory  int
	logger      logging.Logger
	orch        *orchestrator.Orchestrator

	mu      sync.RWMutex
	sources map[string]source.Source
	order   []string
	history []Message
}

// New creates a new Agent with sensible defaults.
//
// The agent is initialized with:
//   - Temperature 0.5
//   - A default system prompt derived from the agent name
//   - A 20-message history bound
//   - An internally constructed orchestrator with default configuration
//
// Returns an error if Temperature lies outside [0, 1] or the orchestrator
// configuration is invalid.
func New(name string, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{
		Temperature: 0.5,
		MaxHistory:  20,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Temperature < 0 || opts.Temperature > 1 {
		return nil, fmt.Errorf("temperature must be between 0 and 1, got %v", opts.Temperature)
	}

	if opts.SystemPrompt == "" {
		opts.SystemPrompt = fmt.Sprintf("You are %s, a helpful AI assistant.", name)
	}

	orch := opts.Orchestrator
	if orch == nil {
		var err error

		orch, err = orchestrator.New(func(o *orchestrator.Options) {
			o.Logger = opts.Logger
		})
		if err != nil {
			return nil, err
		}
	}

	a := &Agent{
		name:        name,
		temperature: opts.Temperature,
		maxHistory:  opts.MaxHistory,
		logger:      opts.Logger,
		orch:        orch,
		sources:     make(map[string]source.Source),
	}

	a.AddMessage(RoleSystem, opts.SystemPrompt)

	return a, nil
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Temperature returns the validated temperature metadata.
func (a *Agent) Temperature() float64 { return a.temperature }

// Orchestrator exposes the underlying orchestrator, e.g. for batch runs.
func (a *Agent) Orchestrator() *orchestrator.Orchestrator { return a.orch }

// Register adds a source to the agent's registry, making it part of every
// subsequent Ask fan-out. Registering a source with an existing name
// replaces it in place while keeping its registration order.
func (a *Agent) Register(src source.Source) {
	a.mu.Lock()
	defer a.mu.Unlock()

	name := src.Name()
	if _, exists := a.sources[name]; !exists {
		a.order = append(a.order, name)
	}

	a.sources[name] = src

	a.logger.Info("agent.source.registered", "agent", a.name, "source", name)
}

// Unregister removes a source by name and reports whether it was present.
func (a *Agent) Unregister(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.sources[name]; !exists {
		return false
	}

	delete(a.sources, name)

	for i, n := range a.order {
		if n == name {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}

	a.logger.Info("agent.source.unregistered", "agent", a.name, "source", name)

	return true
}

// HasSource reports whether a source with the given name is registered.
func (a *Agent) HasSource(name string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	_, ok := a.sources[name]

	return ok
}

// Sources returns the registered source names in registration order.
func (a *Agent) Sources() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]string, len(a.order))
	copy(out, a.order)

	return out
}

// ClearSources removes every registered source.
func (a *Agent) ClearSources() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.sources = make(map[string]source.Source)
	a.order = nil
}

// Ask sends the question to every registered source concurrently and
// returns one outcome per source, in registration order.
//
// The question and a combined answer assembled from the successful outcomes
// are appended to the conversation history. Failed sources do not prevent
// an answer; if every source fails, the assistant entry records that.
func (a *Agent) Ask(ctx context.Context, text string) ([]core.Outcome, error) {
	a.mu.RLock()
	srcs := make([]source.Source, 0, len(a.order))

	for _, name := range a.order {
		srcs = append(srcs, a.sources[name])
	}
	a.mu.RUnlock()

	if len(srcs) == 0 {
		return nil, fmt.Errorf("no sources registered")
	}

	a.AddMessage(RoleUser, text)

	outcomes := a.orch.Query(ctx, core.NewQuery(text), srcs...)

	a.AddMessage(RoleAssistant, combineOutcomes(outcomes))

	return outcomes, nil
}

// combineOutcomes renders the successful outcomes as one answer text.
func combineOutcomes(outcomes []core.Outcome) string {
	var b strings.Builder

	for _, out := range outcomes {
		if !out.IsSuccess() {
			continue
		}

		if b.Len() > 0 {
			b.WriteString("\n")
		}

		fmt.Fprintf(&b, "%s: %v", out.Source, out.Value)
	}

	if b.Len() == 0 {
		return "all sources failed"
	}

	return b.String()
}

// AddMessage appends a message to the conversation history, trimming the
// oldest entries once the history bound is exceeded.
func (a *Agent) AddMessage(role Role, content string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = append(a.history, NewMessage(role, content))
	a.trimHistoryLocked()

	a.logger.Debug("agent.message.added",
		"agent", a.name,
		"role", string(role),
		"content", logging.Truncate(content, 50),
	)
}

// trimHistoryLocked enforces the history bound. The caller must hold a.mu.
func (a *Agent) trimHistoryLocked() {
	if a.maxHistory <= 0 || len(a.history) <= a.maxHistory {
		return
	}

	excess := len(a.history) - a.maxHistory

	if a.history[0].Role == RoleSystem && a.maxHistory > 1 {
		a.history = append(a.history[:1], a.history[1+excess:]...)
		return
	}

	a.history = a.history[excess:]
}

// History returns a copy of the conversation history.
func (a *Agent) History() []Message {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]Message, len(a.history))
	copy(out, a.history)

	return out
}

// Len returns the number of messages in the conversation history.
func (a *Agent) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return len(a.history)
}

// EstimateTokens estimates the token usage of the history by counting
// whitespace-separated words across all messages.
func (a *Agent) EstimateTokens() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	total := 0
	for _, msg := range a.history {
		total += len(strings.Fields(msg.Content))
	}

	return total
}

// String implements fmt.Stringer.
func (a *Agent) String() string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return fmt.Sprintf("Agent '%s' | Sources: %d | Temp: %.1f", a.name, len(a.order), a.temperature)
}
