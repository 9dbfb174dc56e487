package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lexhaven/reminder-gateway/internal/model"
	"github.com/lexhaven/reminder-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a reminder does not exist.
	ErrNotFound = errors.New("reminder not found")
	// ErrNotPending is returned when a guarded write finds the row no longer
	// (or never) in PENDING state.
	ErrNotPending = errors.New("reminder not found or not pending")
)

type ReminderRepository struct {
	*pg.DB
}

func NewReminderRepository(db *pg.DB) *ReminderRepository {
	return &ReminderRepository{
		db,
	}
}

func (r *ReminderRepository) Create(ctx context.Context, rem *model.Reminder) (*model.Reminder, error) {
	rem.Status = model.ReminderStatusPending
	entity := toReminderEntity(rem)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toReminderModel(entity), nil
}

func (r *ReminderRepository) GetByID(ctx context.Context, id int64) (*model.Reminder, error) {
	var entity ReminderEntity
	err := r.Read(ctx).WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toReminderModel(&entity), nil
}

func (r *ReminderRepository) List(ctx context.Context, f model.ReminderFilter) ([]*model.Reminder, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&ReminderEntity{})

	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.Email != nil && *f.Email != "" {
		q = q.Where("recipient_email = ?", *f.Email)
	}
	if f.From != nil {
		q = q.Where("scheduled_for >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("scheduled_for < ?", *f.To)
	}

	// Count before pagination
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "scheduled_for"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*ReminderEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toReminderModels(entities), total, nil
}

// ListDue returns up to limit PENDING rows whose scheduled_for has passed,
// oldest-due first. This is a candidate list only: it takes no locks, and a
// row may be claimed by another worker between this read and LockRow.
func (r *ReminderRepository) ListDue(ctx context.Context, limit int) ([]*model.Reminder, error) {
	if limit <= 0 {
		return nil, nil
	}
	var entities []*ReminderEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("status = ? AND scheduled_for <= ?", model.ReminderStatusPending, time.Now()).
		Order("scheduled_for ASC").
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toReminderModels(entities), nil
}

// LockRow acquires a transaction-scoped exclusive advisory lock keyed by the
// reminder id. It blocks until the lock is granted and releases automatically
// when the surrounding transaction commits or rolls back. Must be called
// inside WithinTransaction. On dialects without advisory locks (sqlite in
// tests) this is a no-op; the single-writer transaction model serializes
// access there.
func (r *ReminderRepository) LockRow(ctx context.Context, id int64) error {
	tx := r.Write(ctx)
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", id).Error
}

// GetStatus re-reads the current status. Used after LockRow to detect a row
// already claimed by a concurrent worker.
func (r *ReminderRepository) GetStatus(ctx context.Context, id int64) (model.ReminderStatus, error) {
	var entity ReminderEntity
	err := r.Write(ctx).WithContext(ctx).
		Select("status").
		Where("id = ?", id).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return model.ReminderStatus(entity.Status), nil
}

// MarkSent transitions PENDING -> SENT. The status guard makes the update a
// no-op if the row changed underneath the caller.
func (r *ReminderRepository) MarkSent(ctx context.Context, id int64) error {
	return r.guardedUpdate(ctx, id, map[string]interface{}{
		"status":  model.ReminderStatusSent,
		"sent_at": time.Now(),
	})
}

// MarkFailed transitions PENDING -> FAILED and records the truncated error.
func (r *ReminderRepository) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	msg := model.TruncateError(errMsg)
	return r.guardedUpdate(ctx, id, map[string]interface{}{
		"status": model.ReminderStatusFailed,
		"error":  msg,
	})
}

// MarkCancelled transitions PENDING -> CANCELLED.
func (r *ReminderRepository) MarkCancelled(ctx context.Context, id int64) error {
	return r.guardedUpdate(ctx, id, map[string]interface{}{
		"status":       model.ReminderStatusCancelled,
		"cancelled_at": time.Now(),
	})
}

// Update applies operator edits to a PENDING row.
func (r *ReminderRepository) Update(ctx context.Context, id int64, p model.ReminderUpdateRequest) error {
	if p.Empty() {
		return nil
	}
	fields := map[string]interface{}{}
	if p.RecipientName != nil {
		fields["recipient_name"] = *p.RecipientName
	}
	if p.RecipientEmail != nil {
		fields["recipient_email"] = *p.RecipientEmail
	}
	if p.Subject != nil {
		fields["subject"] = *p.Subject
	}
	if p.ScheduledFor != nil {
		fields["scheduled_for"] = *p.ScheduledFor
	}
	return r.guardedUpdate(ctx, id, fields)
}

// Delete removes the row regardless of status. Administrative action.
func (r *ReminderRepository) Delete(ctx context.Context, id int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&ReminderEntity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// guardedUpdate is the single mutation path for PENDING rows. The WHERE
// status = 'PENDING' precondition keeps transitions monotonic even if a
// caller ever bypassed the advisory lock.
func (r *ReminderRepository) guardedUpdate(ctx context.Context, id int64, fields map[string]interface{}) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&ReminderEntity{}).
		Where("id = ? AND status = ?", id, model.ReminderStatusPending).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotPending
	}
	return nil
}
