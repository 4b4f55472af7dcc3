package handler

import (
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/pkg/httpcontext"
	"github.com/fastygo/taskpulse/repository"
	"github.com/fastygo/taskpulse/repository/memory"
)

type TaskHandler struct {
	baseHandler
	store *memory.Store
}

func NewTaskHandler(store *memory.Store, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		store:       store,
	}
}

// @Summary List tasks
// @Tags tasks
// @Router /api/tasks [get]
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	var filter repository.TaskFilter
	if v := string(args.Peek("status")); v != "" {
		status := domain.Status(v)
		filter.Status = &status
	}
	if v := string(args.Peek("priority")); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			h.badRequest(ctx, "priority must be a number")
			return
		}
		priority := domain.Priority(p)
		filter.Priority = &priority
	}
	if v := string(args.Peek("category")); v != "" {
		filter.Category = &v
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks := h.store.ListTasks(stdCtx, httpcontext.UserID(ctx), filter)
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

// @Summary Get task
// @Tags tasks
// @Router /api/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.store.GetTask(stdCtx, httpcontext.UserID(ctx), taskID(ctx))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{"task": task})
}

// @Summary Create task
// @Tags tasks
// @Router /api/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	var draft domain.TaskDraft
	if !h.decode(ctx, &draft) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.store.CreateTask(stdCtx, httpcontext.UserID(ctx), draft)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, map[string]interface{}{
		"message": "Task created successfully",
		"task":    created,
	})
}

// @Summary Update task
// @Tags tasks
// @Router /api/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	var changes domain.TaskChanges
	if !h.decode(ctx, &changes) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.store.UpdateTask(stdCtx, httpcontext.UserID(ctx), taskID(ctx), changes)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	// bare task, unlike create
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.store.DeleteTask(stdCtx, httpcontext.UserID(ctx), taskID(ctx)); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

// @Summary Toggle task completion
// @Tags tasks
// @Router /api/tasks/{id}/complete [post]
func (h *TaskHandler) CompleteTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.store.CompleteTask(stdCtx, httpcontext.UserID(ctx), taskID(ctx))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	xp := 0
	if task.Completed {
		xp = task.XPValue
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"task":      task,
		"xp_earned": xp,
	})
}

func taskID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("id").(string)
	return id
}
