package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lexhaven/reminder-gateway/internal/dispatch"
	"github.com/lexhaven/reminder-gateway/internal/model"
	"github.com/lexhaven/reminder-gateway/internal/repository"
	"github.com/lexhaven/reminder-gateway/internal/template"
)

var (
	ErrInvalid     = errors.New("invalid reminder request")
	ErrNotFound    = errors.New("reminder not found")
	ErrNotEligible = errors.New("reminder not found or not eligible")
)

type ReminderRepository interface {
	Create(ctx context.Context, rem *model.Reminder) (*model.Reminder, error)
	GetByID(ctx context.Context, id int64) (*model.Reminder, error)
	List(ctx context.Context, f model.ReminderFilter) ([]*model.Reminder, int64, error)
	Update(ctx context.Context, id int64, p model.ReminderUpdateRequest) error
	MarkCancelled(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// ReminderService is the administrative surface over the queue table. The
// dispatch path never goes through here; it talks to the repository directly.
type ReminderService struct {
	reminderRepo ReminderRepository
	registry     *template.Registry
	worker       dispatch.BatchProcessor
}

func NewReminderService(reminderRepo ReminderRepository, registry *template.Registry, worker dispatch.BatchProcessor) *ReminderService {
	return &ReminderService{
		reminderRepo: reminderRepo,
		registry:     registry,
		worker:       worker,
	}
}

func (s *ReminderService) Create(ctx context.Context, p model.ReminderCreateRequest) (*model.Reminder, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, err)
	}

	key := strings.ToUpper(strings.TrimSpace(p.TemplateKey))
	if key == "" {
		key = template.DefaultTemplateKey
	}

	rem := &model.Reminder{
		RecipientName:  strings.TrimSpace(p.RecipientName),
		RecipientEmail: strings.TrimSpace(p.RecipientEmail),
		TemplateKey:    key,
		Subject:        p.Subject,
		TemplateData:   p.TemplateData,
		ScheduledFor:   p.ScheduledFor,
		CreatedBy:      p.CreatedBy,
		MatchedUserID:  p.MatchedUserID,
	}
	return s.reminderRepo.Create(ctx, rem)
}

func (s *ReminderService) Get(ctx context.Context, id int64) (*model.Reminder, error) {
	rem, err := s.reminderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rem, nil
}

func (s *ReminderService) List(ctx context.Context, f model.ReminderFilter) ([]*model.Reminder, int64, error) {
	return s.reminderRepo.List(ctx, f)
}

// Update applies operator edits; permitted only while the row is PENDING.
func (s *ReminderService) Update(ctx context.Context, id int64, p model.ReminderUpdateRequest) error {
	if err := s.reminderRepo.Update(ctx, id, p); err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return ErrNotEligible
		}
		return err
	}
	return nil
}

// Cancel transitions PENDING -> CANCELLED.
func (s *ReminderService) Cancel(ctx context.Context, id int64) error {
	if err := s.reminderRepo.MarkCancelled(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return ErrNotEligible
		}
		return err
	}
	return nil
}

// Delete removes the row regardless of status.
func (s *ReminderService) Delete(ctx context.Context, id int64) error {
	if err := s.reminderRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Templates returns the registry's display previews.
func (s *ReminderService) Templates() []model.TemplatePreview {
	return s.registry.Previews()
}

// TriggerDispatch runs one batch on demand. It may race with the scheduler's
// own ticks; the worker's per-row locking keeps that safe.
func (s *ReminderService) TriggerDispatch(ctx context.Context) dispatch.BatchResult {
	return s.worker.ProcessBatch(ctx)
}
