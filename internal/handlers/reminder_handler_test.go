package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lexhaven/reminder-gateway/internal/dispatch"
	"github.com/lexhaven/reminder-gateway/internal/model"
	"github.com/lexhaven/reminder-gateway/internal/services"
	xhttp "github.com/lexhaven/reminder-gateway/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	createResult *model.Reminder
	createErr    error
	getResult    *model.Reminder
	getErr       error
	cancelErr    error
	deleteErr    error
}

func (f *fakeService) Create(ctx context.Context, p model.ReminderCreateRequest) (*model.Reminder, error) {
	return f.createResult, f.createErr
}

func (f *fakeService) Get(ctx context.Context, id int64) (*model.Reminder, error) {
	return f.getResult, f.getErr
}

func (f *fakeService) List(ctx context.Context, filter model.ReminderFilter) ([]*model.Reminder, int64, error) {
	return nil, 0, nil
}

func (f *fakeService) Update(ctx context.Context, id int64, p model.ReminderUpdateRequest) error {
	return nil
}

func (f *fakeService) Cancel(ctx context.Context, id int64) error {
	return f.cancelErr
}

func (f *fakeService) Delete(ctx context.Context, id int64) error {
	return f.deleteErr
}

func (f *fakeService) Templates() []model.TemplatePreview {
	return nil
}

func (f *fakeService) TriggerDispatch(ctx context.Context) dispatch.BatchResult {
	return dispatch.BatchResult{}
}

func postCtx(body string) *xhttp.RequestCtx {
	ctx := &xhttp.RequestCtx{}
	ctx.Request.Header.SetMethod("POST")
	ctx.Request.SetBodyString(body)
	return ctx
}

const validCreateBody = `{"recipient_email":"jane@example.com","scheduled_for":"2026-09-01T10:00:00Z"}`

func TestCreateReminder_Created(t *testing.T) {
	h := NewReminderHandler(&fakeService{createResult: &model.Reminder{
		ID:             1,
		RecipientEmail: "jane@example.com",
		Status:         model.ReminderStatusPending,
		ScheduledFor:   time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
	}})

	ctx := postCtx(validCreateBody)
	h.CreateReminder(ctx)

	assert.Equal(t, 201, ctx.Response.StatusCode())

	var rem model.Reminder
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &rem))
	assert.Equal(t, int64(1), rem.ID)
}

func TestCreateReminder_ValidationErrorIs400(t *testing.T) {
	h := NewReminderHandler(&fakeService{
		createErr: fmt.Errorf("%w: recipient_email is required", services.ErrInvalid),
	})

	ctx := postCtx(`{"scheduled_for":"2026-09-01T10:00:00Z"}`)
	h.CreateReminder(ctx)

	assert.Equal(t, 400, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "recipient_email")
}

func TestCreateReminder_InternalErrorIs500(t *testing.T) {
	h := NewReminderHandler(&fakeService{
		createErr: errors.New("write: connection refused"),
	})

	ctx := postCtx(validCreateBody)
	h.CreateReminder(ctx)

	assert.Equal(t, 500, ctx.Response.StatusCode())
}

func TestCreateReminder_MalformedJSONIs400(t *testing.T) {
	h := NewReminderHandler(&fakeService{})

	ctx := postCtx(`{"recipient_email":`)
	h.CreateReminder(ctx)

	assert.Equal(t, 400, ctx.Response.StatusCode())
}

func TestGetReminder_NotFoundIs404(t *testing.T) {
	h := NewReminderHandler(&fakeService{getErr: services.ErrNotFound})

	ctx := &xhttp.RequestCtx{}
	ctx.SetUserValue("id", "42")
	h.GetReminder(ctx)

	assert.Equal(t, 404, ctx.Response.StatusCode())
}

func TestCancelReminder_NotEligibleIs404(t *testing.T) {
	h := NewReminderHandler(&fakeService{cancelErr: services.ErrNotEligible})

	ctx := &xhttp.RequestCtx{}
	ctx.SetUserValue("id", "42")
	h.CancelReminder(ctx)

	assert.Equal(t, 404, ctx.Response.StatusCode())
}

func TestGetReminder_BadIDIs400(t *testing.T) {
	h := NewReminderHandler(&fakeService{})

	ctx := &xhttp.RequestCtx{}
	ctx.SetUserValue("id", "not-a-number")
	h.GetReminder(ctx)

	assert.Equal(t, 400, ctx.Response.StatusCode())
}
