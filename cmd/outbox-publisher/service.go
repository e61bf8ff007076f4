package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/db/models"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/logger"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultMaxAttempts    = 10
	defaultPublishTimeout = 15 * time.Second
	maxBackoff            = 10 * time.Second
)

type outboxRepository interface {
	FetchUnpublished(limit int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

// gcpPublisher adapts the concrete Pub/Sub publisher to the narrow
// interface the service is tested against.
type gcpPublisher struct {
	inner *gcppubsub.Publisher
}

func (p gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return p.inner.Publish(ctx, msg)
}

type ServiceParams struct {
	Logger       *logger.Logger
	Repository   outboxRepository
	Publisher    publisher
	BatchSize    int
	MaxAttempts  int
	PollInterval time.Duration
}

// Service drains outbox_events rows into the orders topic. Rows keep their
// insertion order; a row that keeps failing past MaxAttempts is parked and
// left unpublished for operator inspection.
type Service struct {
	logg         *logger.Logger
	repo         outboxRepository
	publisher    publisher
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration

	parked map[uuid.UUID]struct{}
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Publisher == nil {
		return nil, errors.New("publisher is required")
	}

	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	interval := params.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	return &Service{
		logg:         params.Logger,
		repo:         params.Repository,
		publisher:    params.Publisher,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: interval,
		parked:       map[uuid.UUID]struct{}{},
	}, nil
}

// Run polls until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	backoff := s.pollInterval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "outbox publisher context canceled")
			return ctx.Err()
		default:
		}

		published, err := s.drainOnce(ctx)
		if err != nil {
			s.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = nextBackoff(backoff)
			if err := s.sleep(ctx, backoff); err != nil {
				return err
			}
			continue
		}

		backoff = s.pollInterval
		if published > 0 {
			continue
		}
		if err := s.sleep(ctx, s.pollInterval); err != nil {
			return err
		}
	}
}

// drainOnce publishes one batch and reports how many rows went out.
func (s *Service) drainOnce(ctx context.Context) (int, error) {
	events, err := s.repo.FetchUnpublished(s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetching outbox batch: %w", err)
	}

	published := 0
	for _, event := range events {
		if event.AttemptCount >= s.maxAttempts {
			s.park(ctx, event)
			continue
		}

		if err := s.publish(ctx, event); err != nil {
			logCtx := s.eventContext(ctx, event)
			s.logg.Error(logCtx, "outbox event publish failed", err)
			if markErr := s.repo.MarkFailed(event.ID, err); markErr != nil {
				return published, fmt.Errorf("marking outbox event failed: %w", markErr)
			}
			continue
		}

		if err := s.repo.MarkPublished(event.ID); err != nil {
			// The event went out but stayed unpublished in the table, so the
			// next pass will re-send it. Consumers dedupe on the payload
			// event id.
			return published, fmt.Errorf("marking outbox event published: %w", err)
		}
		published++
	}

	return published, nil
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent) error {
	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	result := s.publisher.Publish(publishCtx, &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
		},
	})
	_, err := result.Get(publishCtx)
	return err
}

func (s *Service) park(ctx context.Context, event models.OutboxEvent) {
	if _, seen := s.parked[event.ID]; seen {
		return
	}
	s.parked[event.ID] = struct{}{}
	logCtx := s.eventContext(ctx, event)
	s.logg.Warn(logCtx, "outbox event exhausted publish attempts, parked")
}

func (s *Service) eventContext(ctx context.Context, event models.OutboxEvent) context.Context {
	return s.logg.WithFields(ctx, map[string]any{
		"outbox_event_id": event.ID.String(),
		"event_type":      string(event.EventType),
		"attempt_count":   event.AttemptCount,
	})
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
