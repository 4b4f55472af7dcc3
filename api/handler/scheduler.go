package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/api/transport"
	"github.com/fastygo/taskpulse/pkg/httpcontext"
	"github.com/fastygo/taskpulse/repository/memory"
)

type SchedulerHandler struct {
	baseHandler
	store *memory.Store
}

func NewSchedulerHandler(store *memory.Store, adapter *httpcontext.Adapter, logger *zap.Logger) *SchedulerHandler {
	return &SchedulerHandler{
		baseHandler: newBaseHandler(adapter, logger),
		store:       store,
	}
}

// @Summary Generate a schedule for open tasks
// @Tags scheduler
// @Router /api/scheduler/generate [post]
func (h *SchedulerHandler) Generate(ctx *fasthttp.RequestCtx) {
	var params map[string]interface{}
	if !h.decode(ctx, &params) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	slots := h.store.GenerateSchedule(stdCtx, httpcontext.UserID(ctx))
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"schedule": slots,
		"params":   params,
	})
}

// @Summary Move a task to a new time
// @Tags scheduler
// @Router /api/scheduler/reschedule [post]
func (h *SchedulerHandler) Reschedule(ctx *fasthttp.RequestCtx) {
	var req transport.RescheduleRequest
	if !h.decode(ctx, &req) {
		return
	}
	if req.TaskID == "" || req.NewTime.IsZero() {
		h.badRequest(ctx, "taskId and newTime are required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.store.Reschedule(stdCtx, httpcontext.UserID(ctx), req.TaskID, req.NewTime)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"task":     task,
		"schedule": h.store.GenerateSchedule(stdCtx, httpcontext.UserID(ctx)),
	})
}
