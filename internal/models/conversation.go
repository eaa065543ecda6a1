// Package models defines the data structures for the mortgage qualification engine.
package models

import (
	"time"
)

// Role identifies who authored a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// MessageType tells the client how to render a transcript entry.
type MessageType string

const (
	MessageTypeText       MessageType = "text"
	MessageTypeDirections MessageType = "directions"
	MessageTypePackages   MessageType = "packages"
	MessageTypeHandover   MessageType = "handover"
	MessageTypeLoader     MessageType = "loader"
)

// Message is one transcript entry.
type Message struct {
	ID        string      `json:"id"`
	Role      Role        `json:"role"`
	Content   string      `json:"content"`
	Type      MessageType `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// DirectionOption is one side of the stability/flexibility choice.
type DirectionOption struct {
	Preference  RatePreference `json:"preference"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	TradeOff    string         `json:"trade_off"`
}

// DirectionOptions returns the two strategies offered at the direction step.
func DirectionOptions() []DirectionOption {
	return []DirectionOption{
		{
			Preference:  RatePreferenceFixed,
			Title:       "Prioritize Stability",
			Description: "I want to pay a fixed amount every month for the next few years, regardless of market fluctuations.",
			TradeOff:    "Rates are slightly higher now to pay for this certainty.",
		},
		{
			Preference:  RatePreferenceFloating,
			Title:       "Maximize Flexibility",
			Description: "I want the lowest possible rate today and I can accept my monthly payments changing if the market shifts.",
			TradeOff:    "If interest rates rise, your monthly instalment increases immediately.",
		},
	}
}

// HandoverCTA points the user at a human adviser.
type HandoverCTA struct {
	URL   string `json:"url"`
	Label string `json:"label"`
	Note  string `json:"note"`
}

// Session is the state of one active conversation.
type Session struct {
	ID         string             `json:"id"`
	State      QualificationState `json:"state"`
	Context    UserContext        `json:"context"`
	Transcript []Message          `json:"transcript"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// TurnResult is what a single user turn or direction choice produces.
type TurnResult struct {
	AssistantMessages []Message          `json:"assistant_messages"`
	NewState          QualificationState `json:"new_state"`
	NewContext        UserContext        `json:"new_context"`
}

// Lead is the qualification summary passed to human advisers at handover.
type Lead struct {
	SessionID   string                   `json:"session_id"`
	Reason      string                   `json:"reason"`
	Context     UserContext              `json:"context"`
	Packages    []MortgagePackageSummary `json:"packages,omitempty"`
	LastMessage string                   `json:"last_message,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
}
