// Package composer produces Dexter's free-text replies through the language model.
package composer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mortgage-qualification-engine/internal/models"
	"mortgage-qualification-engine/internal/services/llm"
)

// Persona is the fixed voice and style instruction.
const Persona = `
You are Dexter AI, a Senior Mortgage Broker from "The Loan Connection".
Your tone is professional, concise, and empathetic.
You rely on the provided context to guide the user.
Keep responses under 100 words unless explaining a complex concept.

VOICE & TONE GUIDELINES:
1. Be a Consultant, Not a Form
2. No Robot Talk
3. Singapore Context (HDB, SORA, Lock-in)
4. Validation for large loan sizes
5. Logic First
`

// Replies used when the model cannot answer.
const (
	FallbackEmpty = "I'm having trouble accessing market data at the moment. Please try again shortly."
	FallbackError = "I'm receiving a high number of requests right now. Please give me a few seconds and try again."
)

// Composer builds state-specific instructions and asks the model for a reply.
type Composer struct {
	generator llm.Generator
	logger    *zap.Logger
}

// New creates a composer over the given generator.
func New(generator llm.Generator, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{generator: generator, logger: logger}
}

// Compose returns a reply for the user. It never returns an error; failures map to fixed replies.
func (c *Composer) Compose(ctx context.Context, userText string, state models.QualificationState, missing []string, uc models.UserContext) string {
	text, err := c.generator.Generate(ctx, llm.Request{
		Prompt:            userText,
		SystemInstruction: SystemInstruction(state, missing, uc),
	})
	if err != nil {
		c.logger.Warn("Reply generation failed",
			zap.String("state", string(state)),
			zap.Error(err),
		)
		return FallbackError
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return FallbackEmpty
	}
	return text
}

// SystemInstruction joins the persona with the task for the given state.
func SystemInstruction(state models.QualificationState, missing []string, uc models.UserContext) string {
	return fmt.Sprintf("%s\n\nCURRENT TASK:\n%s", Persona, Directive(state, missing, uc))
}

// Directive is the task-specific part of the instruction.
func Directive(state models.QualificationState, missing []string, uc models.UserContext) string {
	switch state {
	case models.StateFactFinding:
		known, err := json.Marshal(uc)
		if err != nil {
			known = []byte("{}")
		}
		return fmt.Sprintf(
			"The user is missing: %s.\nContext so far: %s.\nTask: Acknowledge warmly, then ask ONLY ONE missing field.",
			strings.Join(missing, ", "), known)
	case models.StateHandover:
		return "Close gently and mention that the button below connects to a human specialist."
	default:
		return "Answer professionally using Singapore mortgage knowledge."
	}
}
