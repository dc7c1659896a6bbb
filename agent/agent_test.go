package agent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/hupe1980/querymesh/core"
	"github.com/hupe1980/querymesh/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	a, err := New("Helper")
	require.NoError(t, err)

	assert.Equal(t, "Helper", a.Name())
	assert.Equal(t, 0.5, a.Temperature())

	// History starts with the derived system prompt.
	history := a.History()
	require.Len(t, history, 1)
	assert.Equal(t, RoleSystem, history[0].Role)
	assert.Equal(t, "You are Helper, a helpful AI assistant.", history[0].Content)
	assert.False(t, history[0].Timestamp.IsZero())
}

func TestNew_TemperatureValidation(t *testing.T) {
	_, err := New("A", func(o *Options) { o.Temperature = -0.1 })
	assert.Error(t, err)

	_, err = New("A", func(o *Options) { o.Temperature = 1.1 })
	assert.Error(t, err)

	// The bounds themselves are valid.
	for _, temp := range []float64{0, 1} {
		a, err := New("A", func(o *Options) { o.Temperature = temp })
		require.NoError(t, err)
		assert.Equal(t, temp, a.Temperature())
	}
}

func TestAgent_Registry(t *testing.T) {
	a, err := New("A")
	require.NoError(t, err)

	a.Register(source.NewMock("wiki"))
	a.Register(source.NewMock("kb"))
	a.Register(source.NewMock("wiki")) // replacement keeps order

	assert.Equal(t, []string{"wiki", "kb"}, a.Sources())
	assert.True(t, a.HasSource("kb"))
	assert.False(t, a.HasSource("nope"))

	assert.True(t, a.Unregister("wiki"))
	assert.False(t, a.Unregister("wiki"))
	assert.Equal(t, []string{"kb"}, a.Sources())

	a.ClearSources()
	assert.Empty(t, a.Sources())
}

func TestAgent_Ask(t *testing.T) {
	wiki := source.NewMock("wiki")
	wiki.AddResponse("capital of France?", "Paris")

	kb := source.NewMock("kb")
	kb.SetError(errors.New("down"))

	a, err := New("A")
	require.NoError(t, err)

	a.Register(wiki)
	a.Register(kb)

	outcomes, err := a.Ask(context.Background(), "capital of France?")
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, "wiki", outcomes[0].Source)
	assert.True(t, outcomes[0].IsSuccess())
	assert.Equal(t, "Paris", outcomes[0].Value)

	assert.Equal(t, "kb", outcomes[1].Source)
	assert.Equal(t, core.FailureSourceError, outcomes[1].Kind)

	// History: system, user, combined assistant answer.
	history := a.History()
	require.Len(t, history, 3)
	assert.Equal(t, RoleUser, history[1].Role)
	assert.Equal(t, "capital of France?", history[1].Content)
	assert.Equal(t, RoleAssistant, history[2].Role)
	assert.Equal(t, "wiki: Paris", history[2].Content)
}

func TestAgent_AskAllFailed(t *testing.T) {
	bad := source.NewMock("bad")
	bad.SetError(errors.New("down"))

	a, err := New("A")
	require.NoError(t, err)

	a.Register(bad)

	outcomes, err := a.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.True(t, outcomes[0].IsFailure())

	history := a.History()
	assert.Equal(t, "all sources failed", history[len(history)-1].Content)
}

func TestAgent_AskNoSources(t *testing.T) {
	a, err := New("A")
	require.NoError(t, err)

	_, err = a.Ask(context.Background(), "q")
	assert.Error(t, err)
}

func TestAgent_HistoryTrim(t *testing.T) {
	a, err := New("A", func(o *Options) { o.MaxHistory = 4 })
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		a.AddMessage(RoleUser, fmt.Sprintf("msg-%d", i))
	}

	history := a.History()
	require.Len(t, history, 4)

	// The system prompt survives, the oldest user messages are dropped.
	assert.Equal(t, RoleSystem, history[0].Role)
	assert.Equal(t, "msg-3", history[1].Content)
	assert.Equal(t, "msg-5", history[3].Content)
}

func TestAgent_EstimateTokens(t *testing.T) {
	a, err := New("A", func(o *Options) { o.SystemPrompt = "one two three" })
	require.NoError(t, err)

	assert.Equal(t, 3, a.EstimateTokens())

	a.AddMessage(RoleUser, "four five")
	assert.Equal(t, 5, a.EstimateTokens())
}

func TestAgent_SaveLoadHistory(t *testing.T) {
	a, err := New("A")
	require.NoError(t, err)

	a.AddMessage(RoleUser, "hello")
	a.AddMessage(RoleAssistant, "hi there")

	path := filepath.Join(t.TempDir(), "conversation.json")
	require.NoError(t, a.SaveHistory(path))

	b, err := New("B")
	require.NoError(t, err)
	require.NoError(t, b.LoadHistory(path))

	want := a.History()
	got := b.History()
	require.Len(t, got, len(want))

	for i := range want {
		assert.Equal(t, want[i].Role, got[i].Role)
		assert.Equal(t, want[i].Content, got[i].Content)
		assert.True(t, want[i].Timestamp.Equal(got[i].Timestamp))
	}
}

func TestAgent_LoadHistoryMissingFile(t *testing.T) {
	a, err := New("A")
	require.NoError(t, err)

	assert.Error(t, a.LoadHistory(filepath.Join(t.TempDir(), "nope.json")))
}

func TestAgent_String(t *testing.T) {
	a, err := New("Helper")
	require.NoError(t, err)

	a.Register(source.NewMock("wiki"))

	assert.Equal(t, "Agent 'Helper' | Sources: 1 | Temp: 0.5", a.String())
	assert.Equal(t, 1, a.Len())
}
