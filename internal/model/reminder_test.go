package model

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateError_ShortStringUnchanged(t *testing.T) {
	assert.Equal(t, "mailbox full", TruncateError("mailbox full"))
	assert.Equal(t, "", TruncateError(""))
}

func TestTruncateError_LongStringCutToLimit(t *testing.T) {
	long := strings.Repeat("x", MaxErrorLen+50)
	got := TruncateError(long)
	assert.Len(t, got, MaxErrorLen)
}

func TestTruncateError_DoesNotSplitRunes(t *testing.T) {
	// A two-byte rune straddling the limit: byte MaxErrorLen would be a
	// continuation byte, so the cut has to back off to byte MaxErrorLen-1.
	s := strings.Repeat("x", MaxErrorLen-1) + strings.Repeat("é", 30)
	got := TruncateError(s)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("x", MaxErrorLen-1), got)
}

func TestTruncateError_KeepsWholeRuneAtBoundary(t *testing.T) {
	// Rune ends exactly at the limit: nothing to trim.
	s := strings.Repeat("x", MaxErrorLen-2) + strings.Repeat("é", 30)
	got := TruncateError(s)

	assert.True(t, utf8.ValidString(got))
	assert.Len(t, got, MaxErrorLen)
	assert.True(t, strings.HasSuffix(got, "é"))
}

func TestReminderDue(t *testing.T) {
	now := time.Now()
	rem := &Reminder{Status: ReminderStatusPending, ScheduledFor: now.Add(-time.Minute)}
	assert.True(t, rem.Due(now))

	rem.ScheduledFor = now.Add(time.Minute)
	assert.False(t, rem.Due(now))

	rem.ScheduledFor = now.Add(-time.Minute)
	rem.Status = ReminderStatusSent
	assert.False(t, rem.Due(now))
}
