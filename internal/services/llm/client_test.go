package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"

	"mortgage-qualification-engine/internal/services/llm"
)

var testChain = []string{"model-a", "model-b", "model-c"}

// scriptedCaller replays one outcome per call and records which model was hit.
type scriptedCaller struct {
	outcomes []error
	text     string
	calls    []string
}

func (s *scriptedCaller) call(_ context.Context, model string, _ llm.Request) (string, error) {
	idx := len(s.calls)
	s.calls = append(s.calls, model)
	if idx < len(s.outcomes) && s.outcomes[idx] != nil {
		return "", s.outcomes[idx]
	}
	return s.text, nil
}

type sleepRecorder struct {
	waits []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func newClient(t *testing.T, caller *scriptedCaller, sleeper *sleepRecorder) *llm.Client {
	return llm.NewClientWithCaller(caller.call, testChain, 2, 800*time.Millisecond, zaptest.NewLogger(t),
		llm.WithSleep(sleeper.sleep))
}

func TestGenerate_FirstModelSucceeds(t *testing.T) {
	caller := &scriptedCaller{text: "hello"}
	sleeper := &sleepRecorder{}

	text, err := newClient(t, caller, sleeper).Generate(context.Background(), llm.Request{Prompt: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, []string{"model-a"}, caller.calls)
	assert.Empty(t, sleeper.waits)
}

func TestGenerate_FallsBackOnNonOverloadError(t *testing.T) {
	caller := &scriptedCaller{
		outcomes: []error{errors.New("model not found"), errors.New("permission denied")},
		text:     "from c",
	}
	sleeper := &sleepRecorder{}

	text, err := newClient(t, caller, sleeper).Generate(context.Background(), llm.Request{Prompt: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "from c", text)
	assert.Equal(t, []string{"model-a", "model-b", "model-c"}, caller.calls)
	assert.Empty(t, sleeper.waits)
}

func TestGenerate_OverloadRestartsChainAfterBackoff(t *testing.T) {
	caller := &scriptedCaller{
		outcomes: []error{errors.New("The model is overloaded. Please try again later.")},
		text:     "recovered",
	}
	sleeper := &sleepRecorder{}

	text, err := newClient(t, caller, sleeper).Generate(context.Background(), llm.Request{Prompt: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, []string{"model-a", "model-a"}, caller.calls)
	assert.Equal(t, []time.Duration{800 * time.Millisecond}, sleeper.waits)
}

func TestGenerate_OverloadRetriesAreBounded(t *testing.T) {
	overloaded := genai.APIError{Code: 503, Status: "UNAVAILABLE", Message: "busy"}
	caller := &scriptedCaller{outcomes: []error{
		overloaded, overloaded, overloaded, overloaded, overloaded,
	}}
	sleeper := &sleepRecorder{}

	_, err := newClient(t, caller, sleeper).Generate(context.Background(), llm.Request{Prompt: "hi"})

	require.Error(t, err)
	assert.Len(t, sleeper.waits, 2)
	// two restarts from model-a, then the chain is walked once more without retrying
	assert.Equal(t, []string{"model-a", "model-a", "model-a", "model-b", "model-c"}, caller.calls)
}

func TestGenerate_AllModelsFailReturnsLastError(t *testing.T) {
	last := errors.New("quota exceeded")
	caller := &scriptedCaller{outcomes: []error{errors.New("a"), errors.New("b"), last}}

	_, err := newClient(t, caller, &sleepRecorder{}).Generate(context.Background(), llm.Request{Prompt: "hi"})

	assert.ErrorIs(t, err, last)
}

func TestGenerate_NoModels(t *testing.T) {
	client := llm.NewClientWithCaller((&scriptedCaller{}).call, nil, 2, time.Millisecond, nil)

	_, err := client.Generate(context.Background(), llm.Request{})

	assert.ErrorIs(t, err, llm.ErrNoModels)
}

func TestGenerate_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	caller := &scriptedCaller{}
	failing := func(ctx context.Context, model string, req llm.Request) (string, error) {
		caller.calls = append(caller.calls, model)
		cancel()
		return "", errors.New("connection reset")
	}
	client := llm.NewClientWithCaller(failing, testChain, 2, time.Millisecond, zaptest.NewLogger(t))

	_, err := client.Generate(ctx, llm.Request{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"model-a"}, caller.calls)
}

func TestIsOverloaded(t *testing.T) {
	assert.True(t, llm.IsOverloaded(errors.New("model is overloaded")))
	assert.True(t, llm.IsOverloaded(errors.New("rpc error: UNAVAILABLE")))
	assert.True(t, llm.IsOverloaded(genai.APIError{Code: 503}))
	assert.True(t, llm.IsOverloaded(genai.APIError{Code: 500, Status: "UNAVAILABLE"}))
	assert.False(t, llm.IsOverloaded(genai.APIError{Code: 400, Status: "INVALID_ARGUMENT"}))
	assert.False(t, llm.IsOverloaded(errors.New("invalid api key")))
	assert.False(t, llm.IsOverloaded(nil))
}
