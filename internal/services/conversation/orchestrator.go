// Package conversation runs Dexter's qualification flow one turn at a time.
//
// The Orchestrator applies a single turn to a session value. The Service wraps it
// with session storage and the per-session turn guard.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mortgage-qualification-engine/internal/models"
	"mortgage-qualification-engine/internal/services/handover"
	"mortgage-qualification-engine/internal/services/qualification"
)

// Fixed assistant texts.
const (
	WelcomeText        = "Good day. I'm Dexter, your mortgage specialist at The Loan Connection. To get started, could you share if you're looking for a new home loan or refinancing an existing one?"
	DirectionIntroText = "Thank you. Before I shortlist the packages, let's look at your strategy. In the current market, we generally look at two main directions:"
	NoMatchText        = "I've checked our digital database, but I don't see an exact match for those parameters right now. However, we often have offline exclusives for unique cases."
	CatalogDownText    = "I'm unable to reach our package database at the moment. Please send your message again shortly and I'll retry the search."
	RephraseText       = "I apologize, I missed that detail. Could you rephrase?"

	CTALabel = "Speak to a Mortgage Adviser on WhatsApp"
	CTANote  = "Complex case? Our human experts at The Loan Connection can help."
)

const notifyTimeout = 10 * time.Second

// Extractor reads qualification facts and intent from a user message.
type Extractor interface {
	Extract(ctx context.Context, text string, current models.UserContext) models.ExtractionResult
}

// Composer writes free-text replies.
type Composer interface {
	Compose(ctx context.Context, userText string, state models.QualificationState, missing []string, uc models.UserContext) string
}

// Recommender ranks catalog packages for a qualified user.
type Recommender interface {
	Recommend(ctx context.Context, propertyType models.PropertyType, loanSize float64, pref models.RatePreference) ([]models.MortgagePackage, error)
}

// Orchestrator sequences extraction, merge, transition and the resulting action.
type Orchestrator struct {
	extractor   Extractor
	composer    Composer
	recommender Recommender
	notifier    handover.Notifier
	cta         models.HandoverCTA
	logger      *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewOrchestrator creates an orchestrator. notifier may be nil.
func NewOrchestrator(extractor Extractor, composer Composer, recommender Recommender, notifier handover.Notifier, whatsAppURL string, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		extractor:   extractor,
		composer:    composer,
		recommender: recommender,
		notifier:    notifier,
		cta: models.HandoverCTA{
			URL:   whatsAppURL,
			Label: CTALabel,
			Note:  CTANote,
		},
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// turn collects the assistant messages produced while handling one input.
type turn struct {
	o    *Orchestrator
	sess *models.Session
	out  []models.Message
}

func (t *turn) say(content string, kind models.MessageType, data interface{}) {
	msg := models.Message{
		ID:        t.o.newID(),
		Role:      models.RoleAssistant,
		Content:   content,
		Type:      kind,
		Data:      data,
		CreatedAt: t.o.now(),
	}
	t.sess.Transcript = append(t.sess.Transcript, msg)
	t.out = append(t.out, msg)
}

func (t *turn) result() models.TurnResult {
	out := t.out
	if out == nil {
		out = []models.Message{}
	}
	return models.TurnResult{
		AssistantMessages: out,
		NewState:          t.sess.State,
		NewContext:        t.sess.Context,
	}
}

func (o *Orchestrator) begin(sess *models.Session, userText string) *turn {
	sess.Transcript = append(sess.Transcript, models.Message{
		ID:        o.newID(),
		Role:      models.RoleUser,
		Content:   userText,
		Type:      models.MessageTypeText,
		CreatedAt: o.now(),
	})
	return &turn{o: o, sess: sess}
}

// Welcome appends the opening assistant message to a fresh session.
func (o *Orchestrator) Welcome(sess *models.Session) models.TurnResult {
	t := &turn{o: o, sess: sess}
	t.say(WelcomeText, models.MessageTypeText, nil)
	return t.result()
}

// ProcessTurn applies one free-text user message to the session.
func (o *Orchestrator) ProcessTurn(ctx context.Context, sess *models.Session, text string) (result models.TurnResult, err error) {
	text, err = models.ValidateMessageText(text)
	if err != nil {
		return models.TurnResult{}, err
	}

	prevState, prevContext := sess.State, sess.Context
	t := o.begin(sess, text)
	mark := len(sess.Transcript)

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Turn failed",
				zap.String("session_id", sess.ID),
				zap.Any("panic", r),
			)
			sess.State, sess.Context = prevState, prevContext
			sess.Transcript = sess.Transcript[:mark]
			t.out = nil
			t.say(RephraseText, models.MessageTypeText, nil)
			result, err = t.result(), nil
		}
	}()

	extraction := o.extractor.Extract(ctx, text, sess.Context)
	sess.Context = qualification.Merge(sess.Context, extraction)

	if sess.State == models.StateHandover {
		t.say(o.composer.Compose(ctx, text, models.StateHandover, nil, sess.Context), models.MessageTypeText, nil)
		return t.result(), nil
	}

	sess.State = qualification.NextState(sess.Context, extraction.Intent)

	o.logger.Debug("Turn classified",
		zap.String("session_id", sess.ID),
		zap.String("intent", string(extraction.Intent)),
		zap.String("state", string(sess.State)),
		zap.String("reasoning", extraction.Reasoning),
	)

	switch sess.State {
	case models.StateFactFinding:
		missing := qualification.MissingFields(sess.Context)
		t.say(o.composer.Compose(ctx, text, models.StateFactFinding, missing, sess.Context), models.MessageTypeText, nil)

	case models.StateDirectionOutput:
		t.say(DirectionIntroText, models.MessageTypeText, nil)
		t.say("", models.MessageTypeDirections, models.DirectionOptions())

	case models.StatePackageRecommendation:
		uc := sess.Context
		intro := fmt.Sprintf(
			"I've screened our database. Based on a loan size of $%s for a %s property, here are the most competitive %s options available:",
			models.FormatAmount(uc.LoanAmount()), uc.PropertyType, uc.RatePreference)
		o.recommend(ctx, t, intro, text)
	}

	return t.result(), nil
}

// ApplyDirection records the user's choice from the direction card and moves on to packages.
func (o *Orchestrator) ApplyDirection(ctx context.Context, sess *models.Session, pref models.RatePreference) (models.TurnResult, error) {
	if !pref.IsKnown() {
		return models.TurnResult{}, models.ErrInvalidRatePreference
	}

	userText := fmt.Sprintf("I think %s rates suit me better.", pref)
	t := o.begin(sess, userText)
	sess.Context.RatePreference = pref

	if missing := qualification.MissingFields(sess.Context); len(missing) > 0 {
		sess.State = models.StateFactFinding
		t.say(o.composer.Compose(ctx, userText, models.StateFactFinding, missing, sess.Context), models.MessageTypeText, nil)
		return t.result(), nil
	}

	sess.State = models.StatePackageRecommendation
	intro := fmt.Sprintf("Excellent choice. Focusing on %s rates, here are the top recommendations for your tier:", pref)
	o.recommend(ctx, t, intro, userText)

	return t.result(), nil
}

// recommend presents ranked packages and hands over, or keeps the state when the catalog is down.
func (o *Orchestrator) recommend(ctx context.Context, t *turn, intro, lastMessage string) {
	uc := t.sess.Context

	packages, err := o.recommender.Recommend(ctx, uc.PropertyType, uc.LoanAmount(), uc.RatePreference)
	if err != nil {
		if errors.Is(err, models.ErrCatalogUnavailable) {
			t.say(CatalogDownText, models.MessageTypeText, nil)
			return
		}
		o.logger.Error("Recommendation failed", zap.String("session_id", t.sess.ID), zap.Error(err))
		t.say(RephraseText, models.MessageTypeText, nil)
		return
	}

	reason := handover.ReasonRecommended
	if len(packages) > 0 {
		t.say(intro, models.MessageTypeText, nil)
		t.say("", models.MessageTypePackages, packages)
	} else {
		reason = handover.ReasonNoMatch
		t.say(NoMatchText, models.MessageTypeText, nil)
	}

	t.sess.State = models.StateHandover
	t.say("", models.MessageTypeHandover, o.cta)
	o.notify(ctx, t.sess, reason, packages, lastMessage)
}

// notify sends the lead to advisers. Failures are logged and never reach the user.
func (o *Orchestrator) notify(ctx context.Context, sess *models.Session, reason string, packages []models.MortgagePackage, lastMessage string) {
	if o.notifier == nil {
		return
	}

	summaries := make([]models.MortgagePackageSummary, 0, len(packages))
	for i := range packages {
		summaries = append(summaries, packages[i].ToSummary())
	}

	lead := models.Lead{
		SessionID:   sess.ID,
		Reason:      reason,
		Context:     sess.Context,
		Packages:    summaries,
		LastMessage: lastMessage,
		CreatedAt:   o.now(),
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := o.notifier.Notify(ctx, lead); err != nil {
		o.logger.Warn("Adviser notification incomplete",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
	}
}
