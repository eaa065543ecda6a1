package extractor

import (
	"encoding/json"
	"fmt"

	"mortgage-qualification-engine/internal/models"
)

// SystemPrompt instructs the model to act purely as an entity extractor.
const SystemPrompt = `
You are the logic engine for Dexter.
Your ONLY job is to extract mortgage entities from the user's input.
Output JSON only. No conversation.

Entities:
1. propertyType: "HDB" or "Private".
2. loanSize: number (SGD).
3. loanPurpose: "New Purchase" or "Refinance".
4. ratePreference: "Fixed" or "Floating".
5. lockInStatus: short note on any existing lock-in period (refinancing only).

Omit an entity you cannot find. Never guess.

Intent:
- "exploratory": Just browsing.
- "direct": Asks for specific deals.
- "mixed": Vague but has some intent.

Always include "intent" and a one-sentence "reasoning".
`

// BuildPrompt renders the user message together with what is already known.
func BuildPrompt(text string, current models.UserContext) string {
	known, err := json.Marshal(current)
	if err != nil {
		known = []byte("{}")
	}
	return fmt.Sprintf("Current Context: %s. User Input: %q", known, text)
}
