package composer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"mortgage-qualification-engine/internal/models"
	"mortgage-qualification-engine/internal/services/composer"
	"mortgage-qualification-engine/internal/services/llm"
)

type fakeGenerator struct {
	output   string
	err      error
	requests []llm.Request
}

func (f *fakeGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.output, f.err
}

func TestCompose_FactFindingDirective(t *testing.T) {
	gen := &fakeGenerator{output: "  Lovely. Roughly how much are you looking to borrow?  "}
	c := composer.New(gen, zaptest.NewLogger(t))
	uc := models.NewUserContext()
	uc.PropertyType = models.PropertyTypeHDB

	reply := c.Compose(context.Background(), "It's an HDB", models.StateFactFinding,
		[]string{"Loan Amount", "Loan Purpose (New or Refinance)"}, uc)

	assert.Equal(t, "Lovely. Roughly how much are you looking to borrow?", reply)
	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Equal(t, "It's an HDB", req.Prompt)
	assert.False(t, req.JSON)
	assert.True(t, strings.HasPrefix(req.SystemInstruction, composer.Persona))
	assert.Contains(t, req.SystemInstruction, "CURRENT TASK:")
	assert.Contains(t, req.SystemInstruction, "The user is missing: Loan Amount, Loan Purpose (New or Refinance).")
	assert.Contains(t, req.SystemInstruction, `"propertyType":"HDB"`)
	assert.Contains(t, req.SystemInstruction, "ask ONLY ONE missing field")
}

func TestDirective_ByState(t *testing.T) {
	uc := models.NewUserContext()

	assert.Contains(t, composer.Directive(models.StateHandover, nil, uc), "human specialist")
	assert.Equal(t, "Answer professionally using Singapore mortgage knowledge.",
		composer.Directive(models.StateDirectionOutput, nil, uc))
	assert.Equal(t, "Answer professionally using Singapore mortgage knowledge.",
		composer.Directive(models.StatePackageRecommendation, nil, uc))
}

func TestCompose_Fallbacks(t *testing.T) {
	uc := models.NewUserContext()

	empty := composer.New(&fakeGenerator{output: "   "}, zaptest.NewLogger(t))
	assert.Equal(t, composer.FallbackEmpty,
		empty.Compose(context.Background(), "hi", models.StateFactFinding, nil, uc))

	failing := composer.New(&fakeGenerator{err: errors.New("language model unavailable")}, zaptest.NewLogger(t))
	assert.Equal(t, composer.FallbackError,
		failing.Compose(context.Background(), "hi", models.StateFactFinding, nil, uc))
}
