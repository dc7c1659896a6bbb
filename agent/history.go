package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleSystem marks the message that defines the agent's behavior.
	RoleSystem Role = "system"

	// RoleUser marks messages coming from the user.
	RoleUser Role = "user"

	// RoleAssistant marks messages produced by the agent.
	RoleAssistant Role = "assistant"

	// RoleTool marks messages produced by auxiliary tooling.
	RoleTool Role = "tool"
)

// Message is one entry of the conversation history.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a Message stamped with the current time.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now()}
}

// SaveHistory writes the conversation history to path as indented JSON.
func (a *Agent) SaveHistory(path string) error {
	a.mu.RLock()
	messages := make([]Message, len(a.history))
	copy(messages, a.history)
	a.mu.RUnlock()

	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	a.logger.Info("agent.history.saved", "agent", a.name, "path", path, "messages", len(messages))

	return nil
}

// LoadHistory replaces the conversation history with the contents of path,
// previously written by SaveHistory.
func (a *Agent) LoadHistory(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read history file: %w", err)
	}

	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("failed to unmarshal history: %w", err)
	}

	a.mu.Lock()
	a.history = messages
	a.mu.Unlock()

	a.logger.Info("agent.history.loaded", "agent", a.name, "path", path, "messages", len(messages))

	return nil
}
