package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnonymousUser owns appointments booked without a user id.
const AnonymousUser = "anonymous"

type Service interface {
	Book(ctx context.Context, req BookRequest) (*Appointment, error)
	List(ctx context.Context, userID string) ([]Appointment, error)
	Cancel(ctx context.Context, userID string, id uuid.UUID) (*Appointment, error)
}

type service struct {
	repo Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewService(repo Repository, log *zap.Logger) Service {
	return newService(repo, log, time.Now)
}

func newService(repo Repository, log *zap.Logger, now func() time.Time) *service {
	return &service{repo: repo, log: log, now: now}
}

func (s *service) Book(ctx context.Context, req BookRequest) (*Appointment, error) {
	name := strings.TrimSpace(req.Name)
	reason := strings.TrimSpace(req.Reason)
	now := s.now().UTC()

	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	case utf8.RuneCountInString(name) > MaxNameRunes:
		return nil, fmt.Errorf("%w: name is longer than %d characters", ErrInvalidInput, MaxNameRunes)
	case utf8.RuneCountInString(reason) > MaxReasonRunes:
		return nil, fmt.Errorf("%w: reason is longer than %d characters", ErrInvalidInput, MaxReasonRunes)
	case req.ScheduledAt.IsZero():
		return nil, fmt.Errorf("%w: scheduled_at is required", ErrInvalidInput)
	case !req.ScheduledAt.After(now):
		return nil, fmt.Errorf("%w: scheduled_at must be in the future", ErrInvalidInput)
	}

	a := &Appointment{
		ID:          uuid.New(),
		UserID:      normalizeUser(req.UserID),
		Name:        name,
		Reason:      reason,
		ScheduledAt: req.ScheduledAt.UTC().Truncate(time.Microsecond),
		Status:      StatusBooked,
		CreatedAt:   now.Truncate(time.Microsecond),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	s.log.Info("appointment booked",
		zap.String("id", a.ID.String()),
		zap.String("user_id", a.UserID),
		zap.Time("scheduled_at", a.ScheduledAt),
	)
	return a, nil
}

func (s *service) List(ctx context.Context, userID string) ([]Appointment, error) {
	return s.repo.ListByUser(ctx, normalizeUser(userID))
}

// Cancel cancels a booked appointment. Appointments owned by someone else
// are reported as not found.
func (s *service) Cancel(ctx context.Context, userID string, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != normalizeUser(userID) {
		return nil, ErrNotFound
	}
	if a.Status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	if err := s.repo.SetStatus(ctx, id, StatusBooked, StatusCancelled); err != nil {
		return nil, err
	}
	a.Status = StatusCancelled
	s.log.Info("appointment cancelled", zap.String("id", id.String()), zap.String("user_id", a.UserID))
	return a, nil
}

func normalizeUser(id string) string {
	if id == "" {
		return AnonymousUser
	}
	return id
}
