package repository

import (
	"encoding/json"
	"time"

	"github.com/lexhaven/reminder-gateway/internal/model"
	"github.com/lexhaven/reminder-gateway/pkg/logger"
)

type ReminderEntity struct {
	ID             int64      `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	RecipientName  string     `db:"recipient_name"  gorm:"column:recipient_name;not null"`
	RecipientEmail string     `db:"recipient_email" gorm:"column:recipient_email;not null"`
	TemplateKey    string     `db:"template_key"    gorm:"column:template_key;not null"`
	Subject        *string    `db:"subject"         gorm:"column:subject"`
	TemplateData   string     `db:"template_data"   gorm:"column:template_data"`
	ScheduledFor   time.Time  `db:"scheduled_for"   gorm:"column:scheduled_for;not null;index"`
	Status         string     `db:"status"          gorm:"column:status;not null;default:PENDING;index"`
	Error          *string    `db:"error"           gorm:"column:error"`
	CreatedAt      time.Time  `db:"created_at"      gorm:"column:created_at;autoCreateTime"`
	SentAt         *time.Time `db:"sent_at"         gorm:"column:sent_at"`
	CancelledAt    *time.Time `db:"cancelled_at"    gorm:"column:cancelled_at"`
	CreatedBy      *int64     `db:"created_by"      gorm:"column:created_by"`
	MatchedUserID  *int64     `db:"matched_user_id" gorm:"column:matched_user_id"`
}

func (ReminderEntity) TableName() string {
	return "reminders"
}

func toReminderEntity(m *model.Reminder) *ReminderEntity {
	if m == nil {
		return nil
	}
	data := ""
	if len(m.TemplateData) > 0 {
		b, err := json.Marshal(m.TemplateData)
		if err != nil {
			logger.Warn("failed to marshal template data, storing empty bag", "reminder_id", m.ID, "error", err)
		} else {
			data = string(b)
		}
	}
	return &ReminderEntity{
		ID:             m.ID,
		RecipientName:  m.RecipientName,
		RecipientEmail: m.RecipientEmail,
		TemplateKey:    m.TemplateKey,
		Subject:        m.Subject,
		TemplateData:   data,
		ScheduledFor:   m.ScheduledFor,
		Status:         string(m.Status),
		Error:          m.Error,
		CreatedAt:      m.CreatedAt,
		SentAt:         m.SentAt,
		CancelledAt:    m.CancelledAt,
		CreatedBy:      m.CreatedBy,
		MatchedUserID:  m.MatchedUserID,
	}
}

func toReminderModel(e *ReminderEntity) *model.Reminder {
	if e == nil {
		return nil
	}
	var data map[string]string
	if e.TemplateData != "" {
		if err := json.Unmarshal([]byte(e.TemplateData), &data); err != nil {
			// A bad bag must not block dispatch; the renderer treats a nil
			// bag as "no extra fields" and leaves placeholders visible.
			logger.Warn("failed to unmarshal template data", "reminder_id", e.ID, "error", err)
			data = nil
		}
	}
	return &model.Reminder{
		ID:             e.ID,
		RecipientName:  e.RecipientName,
		RecipientEmail: e.RecipientEmail,
		TemplateKey:    e.TemplateKey,
		Subject:        e.Subject,
		TemplateData:   data,
		ScheduledFor:   e.ScheduledFor,
		Status:         model.ReminderStatus(e.Status),
		Error:          e.Error,
		CreatedAt:      e.CreatedAt,
		SentAt:         e.SentAt,
		CancelledAt:    e.CancelledAt,
		CreatedBy:      e.CreatedBy,
		MatchedUserID:  e.MatchedUserID,
	}
}

func toReminderModels(entities []*ReminderEntity) []*model.Reminder {
	if entities == nil {
		return nil
	}
	models := make([]*model.Reminder, len(entities))
	for i, e := range entities {
		models[i] = toReminderModel(e)
	}
	return models
}
