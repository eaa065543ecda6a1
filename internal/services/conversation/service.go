package conversation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"mortgage-qualification-engine/internal/metrics"
	"mortgage-qualification-engine/internal/models"
	"mortgage-qualification-engine/internal/services/session"
)

// Turn kinds for metrics.
const (
	kindMessage   = "message"
	kindDirection = "direction"
)

// Service is the entry point for the chat API.
type Service struct {
	store        session.Store
	orchestrator *Orchestrator
	logger       *zap.Logger
}

// NewService creates a conversation service.
func NewService(store session.Store, orchestrator *Orchestrator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:        store,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Start creates a session and greets the user.
func (s *Service) Start(ctx context.Context) (*models.Session, error) {
	now := s.orchestrator.now()
	sess := &models.Session{
		ID:         s.orchestrator.newID(),
		State:      models.StateInit,
		Context:    models.NewUserContext(),
		Transcript: []models.Message{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.orchestrator.Welcome(sess)

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info("Session started", zap.String("session_id", sess.ID))
	return sess, nil
}

// Get returns the current snapshot of a session.
func (s *Service) Get(ctx context.Context, id string) (*models.Session, error) {
	return s.store.Load(ctx, id)
}

// HandleUserTurn processes a free-text message.
func (s *Service) HandleUserTurn(ctx context.Context, id, text string) (models.TurnResult, error) {
	if _, err := models.ValidateMessageText(text); err != nil {
		metrics.TurnsRejected.WithLabelValues("empty_message").Inc()
		return models.TurnResult{}, err
	}

	return s.withTurn(ctx, id, kindMessage, func(sess *models.Session) (models.TurnResult, error) {
		return s.orchestrator.ProcessTurn(ctx, sess, text)
	})
}

// HandleDirectionChoice processes a click on the direction card.
func (s *Service) HandleDirectionChoice(ctx context.Context, id string, pref models.RatePreference) (models.TurnResult, error) {
	if !pref.IsKnown() {
		metrics.TurnsRejected.WithLabelValues("invalid_preference").Inc()
		return models.TurnResult{}, models.ErrInvalidRatePreference
	}

	return s.withTurn(ctx, id, kindDirection, func(sess *models.Session) (models.TurnResult, error) {
		return s.orchestrator.ApplyDirection(ctx, sess, pref)
	})
}

// withTurn holds the session's turn guard while fn mutates the loaded session.
func (s *Service) withTurn(ctx context.Context, id, kind string, fn func(*models.Session) (models.TurnResult, error)) (models.TurnResult, error) {
	if err := s.store.AcquireTurn(ctx, id); err != nil {
		if errors.Is(err, models.ErrTurnInProgress) {
			metrics.TurnsRejected.WithLabelValues("turn_in_progress").Inc()
		}
		return models.TurnResult{}, err
	}
	defer func() {
		if err := s.store.ReleaseTurn(context.WithoutCancel(ctx), id); err != nil {
			s.logger.Warn("Failed to release turn", zap.String("session_id", id), zap.Error(err))
		}
	}()

	sess, err := s.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			metrics.TurnsRejected.WithLabelValues("session_not_found").Inc()
		}
		return models.TurnResult{}, err
	}

	result, err := fn(sess)
	if err != nil {
		return models.TurnResult{}, err
	}

	sess.UpdatedAt = s.orchestrator.now()
	if err := s.store.Save(ctx, sess); err != nil {
		return models.TurnResult{}, fmt.Errorf("failed to save session: %w", err)
	}

	metrics.TurnsProcessed.WithLabelValues(kind, string(result.NewState)).Inc()
	s.logger.Info("Turn processed",
		zap.String("session_id", id),
		zap.String("kind", kind),
		zap.String("state", string(result.NewState)),
		zap.Int("replies", len(result.AssistantMessages)),
	)

	return result, nil
}
