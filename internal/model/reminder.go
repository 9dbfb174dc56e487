package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// ReminderStatus is the lifecycle state of a scheduled reminder.
// Transitions are one-way: PENDING -> SENT | FAILED | CANCELLED.
type ReminderStatus string

const (
	ReminderStatusPending   ReminderStatus = "PENDING"
	ReminderStatusSent      ReminderStatus = "SENT"
	ReminderStatusFailed    ReminderStatus = "FAILED"
	ReminderStatusCancelled ReminderStatus = "CANCELLED"
)

// MaxErrorLen bounds the error text stored on a FAILED reminder.
const MaxErrorLen = 1000

type Reminder struct {
	ID             int64             `json:"id"              db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	RecipientName  string            `json:"recipient_name"  db:"recipient_name"  gorm:"column:recipient_name;not null"`
	RecipientEmail string            `json:"recipient_email" db:"recipient_email" gorm:"column:recipient_email;not null"`
	TemplateKey    string            `json:"template_key"    db:"template_key"    gorm:"column:template_key;not null"`
	Subject        *string           `json:"subject"         db:"subject"         gorm:"column:subject"`
	TemplateData   map[string]string `json:"template_data"                         gorm:"-"`
	ScheduledFor   time.Time         `json:"scheduled_for"   db:"scheduled_for"   gorm:"column:scheduled_for;not null;index"`
	Status         ReminderStatus    `json:"status"          db:"status"          gorm:"column:status;not null;default:PENDING;index"`
	Error          *string           `json:"error"           db:"error"           gorm:"column:error"`
	CreatedAt      time.Time         `json:"created_at"      db:"created_at"      gorm:"column:created_at;autoCreateTime"`
	SentAt         *time.Time        `json:"sent_at"         db:"sent_at"         gorm:"column:sent_at"`
	CancelledAt    *time.Time        `json:"cancelled_at"    db:"cancelled_at"    gorm:"column:cancelled_at"`
	CreatedBy      *int64            `json:"created_by"      db:"created_by"      gorm:"column:created_by"`
	MatchedUserID  *int64            `json:"matched_user_id" db:"matched_user_id" gorm:"column:matched_user_id"`
}

func (Reminder) TableName() string { return "reminders" }

// Due reports whether the reminder is eligible for dispatch at now.
func (r *Reminder) Due(now time.Time) bool {
	return r.Status == ReminderStatusPending && !r.ScheduledFor.After(now)
}

// ReminderCreateRequest is the input for scheduling a reminder.
type ReminderCreateRequest struct {
	RecipientName  string
	RecipientEmail string
	TemplateKey    string
	Subject        *string
	TemplateData   map[string]string
	ScheduledFor   time.Time
	CreatedBy      *int64
	MatchedUserID  *int64
}

func (p ReminderCreateRequest) Validate() error {
	if strings.TrimSpace(p.RecipientEmail) == "" {
		return errors.New("recipient_email is required")
	}
	if !strings.Contains(p.RecipientEmail, "@") {
		return errors.New("recipient_email is not a valid address")
	}
	if p.ScheduledFor.IsZero() {
		return errors.New("scheduled_for is required")
	}
	return nil
}

// ReminderUpdateRequest carries operator edits; allowed only while PENDING.
// Nil fields are left untouched.
type ReminderUpdateRequest struct {
	RecipientName  *string
	RecipientEmail *string
	Subject        *string
	ScheduledFor   *time.Time
}

func (p ReminderUpdateRequest) Empty() bool {
	return p.RecipientName == nil && p.RecipientEmail == nil && p.Subject == nil && p.ScheduledFor == nil
}

// ReminderFilter controls List queries.
type ReminderFilter struct {
	Statuses []ReminderStatus // IN (...)
	Email    *string          // equals
	From     *time.Time       // scheduled_for >=
	To       *time.Time       // scheduled_for <
	Limit    int              // default 50
	Offset   int
	Desc     bool // order by scheduled_for
}

// TruncateError bounds free-text provider errors before persisting them. The
// cut lands on a rune boundary; a split multibyte rune would be invalid UTF-8
// and Postgres rejects that on write.
func TruncateError(s string) string {
	if len(s) <= MaxErrorLen {
		return s
	}
	cut := MaxErrorLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
