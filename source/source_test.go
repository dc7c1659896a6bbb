package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/querymesh/core"
	"github.com/hupe1980/querymesh/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- Schema & Validation Tests --------------------

type sampleSchema struct {
	A string `json:"a" description:"Field A"`
	B *int   `json:"b" description:"Optional pointer field"`
	C int    `json:"c,omitempty" description:"Omit empty field"`
}

func TestCreateSchema(t *testing.T) {
	schema := util.CreateSchema(sampleSchema{})
	props, ok := schema["properties"].(map[string]any)
	assert.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "c")
	// Required only includes non-pointer, non-omitempty exported fields
	req, _ := schema["required"].([]string)
	assert.ElementsMatch(t, []string{"a"}, req)
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x":    map[string]any{"type": "integer"},
			"lang": map[string]any{"type": "string", "enum": []any{"en", "de"}},
		},
		// Use []any to mirror possible JSON decoded schema shape
		"required": []any{"x"},
	}

	// Success
	err := util.ValidateParameters(map[string]any{"x": 5, "lang": "de"}, schema)
	assert.NoError(t, err)

	// Missing required
	err = util.ValidateParameters(map[string]any{}, schema)
	assert.Error(t, err)
	if vErr, ok := err.(*ValidationError); ok {
		assert.Equal(t, "x", vErr.Field)
	} else {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	// Wrong type
	err = util.ValidateParameters(map[string]any{"x": "not-int"}, schema)
	assert.Error(t, err)
	if vErr, ok := err.(*ValidationError); ok {
		assert.Contains(t, vErr.Message, "expected type integer")
	} else {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	// Enum violation
	err = util.ValidateParameters(map[string]any{"x": 5, "lang": "fr"}, schema)
	assert.Error(t, err)
	if vErr, ok := err.(*ValidationError); ok {
		assert.Equal(t, "lang", vErr.Field)
	} else {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	// Numeric enum tolerates the float64 produced by JSON decoding
	numSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"limit": map[string]any{"type": "integer", "enum": []any{10, 20}},
		},
	}
	assert.NoError(t, util.ValidateParameters(map[string]any{"limit": float64(20)}, numSchema))
	assert.Error(t, util.ValidateParameters(map[string]any{"limit": float64(15)}, numSchema))
}

// -------------------- FuncSource Tests --------------------

func TestFuncSource_Success(t *testing.T) {
	src := NewFunc("upper", func(_ context.Context, query core.Query) (any, error) {
		return "echo: " + query.Text, nil
	})

	assert.Equal(t, "upper", src.Name())

	value, err := src.Fetch(context.Background(), core.NewQuery("hello"))
	assert.NoError(t, err)
	assert.Equal(t, "echo: hello", value)
}

func TestFuncSource_ExecutionError(t *testing.T) {
	cause := errors.New("boom")
	src := NewFunc("fail", func(_ context.Context, _ core.Query) (any, error) {
		return nil, cause
	})

	_, err := src.Fetch(context.Background(), core.NewQuery("q"))
	require.Error(t, err)

	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "fail", srcErr.Source)
	assert.Equal(t, CodeExecutionError, srcErr.Code)
	// The original cause stays reachable through the wrapper.
	assert.ErrorIs(t, err, cause)
}

func TestFuncSource_NilFn(t *testing.T) {
	src := NewFunc("empty", nil)

	_, err := src.Fetch(context.Background(), core.NewQuery("q"))
	require.Error(t, err)

	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, CodeExecutionError, srcErr.Code)
}

func TestSourceError_Error(t *testing.T) {
	withCode := NewSourceError("wiki", "not reachable", CodeExecutionError)
	assert.Equal(t, "source error [EXECUTION_ERROR] in wiki: not reachable", withCode.Error())

	plain := &SourceError{Source: "wiki", Message: "not reachable"}
	assert.Equal(t, "source error in wiki: not reachable", plain.Error())
}

// -------------------- Mock Tests --------------------

func TestMock_CannedAndFallback(t *testing.T) {
	mock := NewMock("kb")
	mock.AddResponse("capital of France?", "Paris")

	value, err := mock.Fetch(context.Background(), core.NewQuery("capital of France?"))
	assert.NoError(t, err)
	assert.Equal(t, "Paris", value)

	value, err = mock.Fetch(context.Background(), core.NewQuery("anything else"))
	assert.NoError(t, err)
	assert.Equal(t, "Mock response to: anything else", value)

	assert.Equal(t, 2, mock.Calls())
}

func TestMock_Error(t *testing.T) {
	mock := NewMock("kb")
	mock.SetError(errors.New("unavailable"))

	_, err := mock.Fetch(context.Background(), core.NewQuery("q"))
	assert.Error(t, err)

	mock.SetError(nil)
	_, err = mock.Fetch(context.Background(), core.NewQuery("q"))
	assert.NoError(t, err)
}

func TestMock_DelayHonoursContext(t *testing.T) {
	mock := NewMock("slow")
	mock.SetDelay(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := mock.Fetch(ctx, core.NewQuery("q"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
