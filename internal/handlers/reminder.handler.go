package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/lexhaven/reminder-gateway/internal/dispatch"
	"github.com/lexhaven/reminder-gateway/internal/model"
	"github.com/lexhaven/reminder-gateway/internal/services"
	xhttp "github.com/lexhaven/reminder-gateway/pkg/http"
)

type ReminderService interface {
	Create(ctx context.Context, p model.ReminderCreateRequest) (*model.Reminder, error)
	Get(ctx context.Context, id int64) (*model.Reminder, error)
	List(ctx context.Context, f model.ReminderFilter) ([]*model.Reminder, int64, error)
	Update(ctx context.Context, id int64, p model.ReminderUpdateRequest) error
	Cancel(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	Templates() []model.TemplatePreview
	TriggerDispatch(ctx context.Context) dispatch.BatchResult
}

type ReminderHandler struct {
	svc ReminderService
}

func RegisterReminderRoutes(e *router.Group, h *ReminderHandler) {
	e.POST("/reminders", h.CreateReminder)
	e.GET("/reminders", h.ListReminders)
	e.GET("/reminders/{id}", h.GetReminder)
	e.PATCH("/reminders/{id}", h.UpdateReminder)
	e.POST("/reminders/{id}/cancel", h.CancelReminder)
	e.DELETE("/reminders/{id}", h.DeleteReminder)
	e.POST("/reminders/dispatch", h.TriggerDispatch)
	e.GET("/templates", h.ListTemplates)
}

func NewReminderHandler(reminderService ReminderService) *ReminderHandler {
	return &ReminderHandler{
		svc: reminderService,
	}
}

type createReminderRequest struct {
	RecipientName  string            `json:"recipient_name"`
	RecipientEmail string            `json:"recipient_email"`
	TemplateKey    string            `json:"template_key"`
	Subject        *string           `json:"subject"`
	TemplateData   map[string]string `json:"template_data"`
	ScheduledFor   time.Time         `json:"scheduled_for"`
	CreatedBy      *int64            `json:"created_by"`
}

type updateReminderRequest struct {
	RecipientName  *string    `json:"recipient_name"`
	RecipientEmail *string    `json:"recipient_email"`
	Subject        *string    `json:"subject"`
	ScheduledFor   *time.Time `json:"scheduled_for"`
}

type listResponse struct {
	Items []*model.Reminder `json:"items"`
	Total int64             `json:"total"`
}

type templatesResponse struct {
	Items []model.TemplatePreview `json:"items"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *ReminderHandler) CreateReminder(ctx *xhttp.RequestCtx) {
	var req createReminderRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	p := model.ReminderCreateRequest{
		RecipientName:  req.RecipientName,
		RecipientEmail: req.RecipientEmail,
		TemplateKey:    req.TemplateKey,
		Subject:        req.Subject,
		TemplateData:   req.TemplateData,
		ScheduledFor:   req.ScheduledFor,
		CreatedBy:      req.CreatedBy,
	}
	rem, err := h.svc.Create(ctx, p)
	if err != nil {
		if errors.Is(err, services.ErrInvalid) {
			writeError(ctx, 400, err.Error())
			return
		}
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 201, rem)
}

func (h *ReminderHandler) GetReminder(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	rem, err := h.svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, 404, err.Error())
			return
		}
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, rem)
}

func (h *ReminderHandler) ListReminders(ctx *xhttp.RequestCtx) {
	var f model.ReminderFilter

	if v := query(ctx, "status"); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
			if parts[i] != "" {
				f.Statuses = append(f.Statuses, model.ReminderStatus(strings.ToUpper(parts[i])))
			}
		}
	}
	if v := query(ctx, "email"); v != "" {
		f.Email = &v
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, listResponse{Items: items, Total: total})
}

func (h *ReminderHandler) UpdateReminder(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	var req updateReminderRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	p := model.ReminderUpdateRequest{
		RecipientName:  req.RecipientName,
		RecipientEmail: req.RecipientEmail,
		Subject:        req.Subject,
		ScheduledFor:   req.ScheduledFor,
	}
	if err := h.svc.Update(ctx, id, p); err != nil {
		if errors.Is(err, services.ErrNotEligible) {
			writeError(ctx, 404, err.Error())
			return
		}
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "updated"})
}

func (h *ReminderHandler) CancelReminder(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	if err := h.svc.Cancel(ctx, id); err != nil {
		if errors.Is(err, services.ErrNotEligible) {
			writeError(ctx, 404, err.Error())
			return
		}
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "cancelled"})
}

func (h *ReminderHandler) DeleteReminder(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	if err := h.svc.Delete(ctx, id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, 404, err.Error())
			return
		}
		writeError(ctx, 500, err.Error())
		return
	}
	ctx.Response.SetStatusCode(204)
}

// TriggerDispatch runs one worker batch on demand. Races with the scheduler
// are absorbed by the per-row locking in the worker.
func (h *ReminderHandler) TriggerDispatch(ctx *xhttp.RequestCtx) {
	result := h.svc.TriggerDispatch(ctx)
	writeJSON(ctx, 200, result)
}

func (h *ReminderHandler) ListTemplates(ctx *xhttp.RequestCtx) {
	writeJSON(ctx, 200, templatesResponse{Items: h.svc.Templates()})
}

/* --------------------------------- Helpers ----------------------------------- */

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

func pathID(ctx *xhttp.RequestCtx) (int64, error) {
	v, _ := ctx.UserValue("id").(string)
	return strconv.ParseInt(v, 10, 64)
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
