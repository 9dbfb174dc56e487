package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lexhaven/reminder-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingReminder(scheduledFor time.Time) *model.Reminder {
	return &model.Reminder{
		RecipientName:  "Alice Harper",
		RecipientEmail: "alice@example.com",
		TemplateKey:    "APPOINTMENT_REMINDER",
		TemplateData:   map[string]string{"case_number": "2026-CV-0042"},
		ScheduledFor:   scheduledFor,
	}
}

func TestReminderRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewReminderRepository(db)
	ctx := context.Background()

	t.Run("create reminder in pending state", func(t *testing.T) {
		created, err := repo.Create(ctx, newPendingReminder(time.Now().Add(time.Hour)))
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, model.ReminderStatusPending, created.Status)
		assert.NotZero(t, created.CreatedAt)
		assert.Nil(t, created.SentAt)
		assert.Nil(t, created.Error)
	})

	t.Run("template data round-trips", func(t *testing.T) {
		created, err := repo.Create(ctx, newPendingReminder(time.Now().Add(time.Hour)))
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "2026-CV-0042", got.TemplateData["case_number"])
	})
}

func TestReminderRepository_ListDue(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewReminderRepository(db)
	ctx := context.Background()

	now := time.Now()

	// Three due rows out of order plus one in the future and one cancelled.
	second, err := repo.Create(ctx, newPendingReminder(now.Add(-2*time.Minute)))
	require.NoError(t, err)
	first, err := repo.Create(ctx, newPendingReminder(now.Add(-3*time.Minute)))
	require.NoError(t, err)
	third, err := repo.Create(ctx, newPendingReminder(now.Add(-1*time.Minute)))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newPendingReminder(now.Add(time.Hour)))
	require.NoError(t, err)
	cancelled, err := repo.Create(ctx, newPendingReminder(now.Add(-10*time.Minute)))
	require.NoError(t, err)
	require.NoError(t, repo.MarkCancelled(ctx, cancelled.ID))

	t.Run("oldest due first, non-pending and future excluded", func(t *testing.T) {
		due, err := repo.ListDue(ctx, 10)
		require.NoError(t, err)
		require.Len(t, due, 3)
		assert.Equal(t, first.ID, due[0].ID)
		assert.Equal(t, second.ID, due[1].ID)
		assert.Equal(t, third.ID, due[2].ID)
	})

	t.Run("limit respected", func(t *testing.T) {
		due, err := repo.ListDue(ctx, 2)
		require.NoError(t, err)
		require.Len(t, due, 2)
		assert.Equal(t, first.ID, due[0].ID)
	})

	t.Run("zero limit yields nothing", func(t *testing.T) {
		due, err := repo.ListDue(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, due)
	})
}

func TestReminderRepository_MarkSent(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewReminderRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newPendingReminder(time.Now().Add(-time.Minute)))
	require.NoError(t, err)

	require.NoError(t, repo.MarkSent(ctx, created.ID))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReminderStatusSent, got.Status)
	require.NotNil(t, got.SentAt)
	assert.Nil(t, got.Error)

	t.Run("second transition is rejected", func(t *testing.T) {
		err := repo.MarkSent(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotPending)
	})

	t.Run("cancel after sent leaves row unchanged", func(t *testing.T) {
		err := repo.MarkCancelled(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotPending)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ReminderStatusSent, got.Status)
		assert.Nil(t, got.CancelledAt)
	})
}

func TestReminderRepository_MarkFailed(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewReminderRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newPendingReminder(time.Now().Add(-time.Minute)))
	require.NoError(t, err)

	t.Run("error text is stored truncated", func(t *testing.T) {
		long := strings.Repeat("x", model.MaxErrorLen+500)
		require.NoError(t, repo.MarkFailed(ctx, created.ID, long))

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ReminderStatusFailed, got.Status)
		require.NotNil(t, got.Error)
		assert.Len(t, *got.Error, model.MaxErrorLen)
	})

	t.Run("failed row cannot be re-failed", func(t *testing.T) {
		err := repo.MarkFailed(ctx, created.ID, "again")
		assert.ErrorIs(t, err, ErrNotPending)
	})
}

func TestReminderRepository_Update(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewReminderRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newPendingReminder(time.Now().Add(time.Hour)))
	require.NoError(t, err)

	t.Run("update pending row", func(t *testing.T) {
		email := "bob@example.com"
		when := time.Now().Add(48 * time.Hour)
		err := repo.Update(ctx, created.ID, model.ReminderUpdateRequest{
			RecipientEmail: &email,
			ScheduledFor:   &when,
		})
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, email, got.RecipientEmail)
		assert.WithinDuration(t, when, got.ScheduledFor, time.Second)
	})

	t.Run("empty update is a no-op", func(t *testing.T) {
		require.NoError(t, repo.Update(ctx, created.ID, model.ReminderUpdateRequest{}))
	})

	t.Run("update after cancel is rejected", func(t *testing.T) {
		require.NoError(t, repo.MarkCancelled(ctx, created.ID))

		name := "Someone Else"
		err := repo.Update(ctx, created.ID, model.ReminderUpdateRequest{RecipientName: &name})
		assert.ErrorIs(t, err, ErrNotPending)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice Harper", got.RecipientName)
	})

	t.Run("update missing row reports not pending", func(t *testing.T) {
		name := "Nobody"
		err := repo.Update(ctx, 99999, model.ReminderUpdateRequest{RecipientName: &name})
		assert.ErrorIs(t, err, ErrNotPending)
	})
}

func TestReminderRepository_Delete(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewReminderRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newPendingReminder(time.Now().Add(-time.Minute)))
	require.NoError(t, err)
	require.NoError(t, repo.MarkSent(ctx, created.ID))

	t.Run("delete works regardless of status", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, created.ID))
		_, err := repo.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete missing row reports not found", func(t *testing.T) {
		err := repo.Delete(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestReminderRepository_List(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewReminderRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, newPendingReminder(base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}
	sent, err := repo.Create(ctx, newPendingReminder(base))
	require.NoError(t, err)
	require.NoError(t, repo.MarkSent(ctx, sent.ID))

	t.Run("filter by status", func(t *testing.T) {
		items, total, err := repo.List(ctx, model.ReminderFilter{
			Statuses: []model.ReminderStatus{model.ReminderStatusSent},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, sent.ID, items[0].ID)
	})

	t.Run("pagination", func(t *testing.T) {
		items, total, err := repo.List(ctx, model.ReminderFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(6), total)
		assert.Len(t, items, 2)
	})

	t.Run("date range on scheduled_for", func(t *testing.T) {
		from := base.Add(30 * time.Second)
		to := base.Add(3 * time.Minute)
		_, total, err := repo.List(ctx, model.ReminderFilter{From: &from, To: &to})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})
}

func TestReminderRepository_LockAndStatusInTransaction(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReminderRepository(db.DB)
	ctx := context.Background()

	created, err := repo.Create(ctx, newPendingReminder(time.Now().Add(-time.Minute)))
	require.NoError(t, err)

	err = repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := repo.LockRow(ctx, created.ID); err != nil {
			return err
		}
		status, err := repo.GetStatus(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ReminderStatusPending, status)
		return repo.MarkSent(ctx, created.ID)
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReminderStatusSent, got.Status)
}
