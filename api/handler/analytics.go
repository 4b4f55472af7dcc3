package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/api/transport"
	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/pkg/httpcontext"
	"github.com/fastygo/taskpulse/repository/memory"
)

type AnalyticsHandler struct {
	baseHandler
	store *memory.Store
}

func NewAnalyticsHandler(store *memory.Store, adapter *httpcontext.Adapter, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		baseHandler: newBaseHandler(adapter, logger),
		store:       store,
	}
}

// @Router /api/analytics/dashboard [get]
func (h *AnalyticsHandler) Dashboard(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	h.respondSuccess(ctx, http.StatusOK, h.store.Dashboard(stdCtx, httpcontext.UserID(ctx)))
}

// @Router /api/analytics/insights [get]
func (h *AnalyticsHandler) Insights(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	h.respondSuccess(ctx, http.StatusOK, transport.InsightsPayload{Insights: h.store.Insights(stdCtx, httpcontext.UserID(ctx))})
}

// @Router /api/analytics/heatmap [get]
func (h *AnalyticsHandler) Heatmap(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	h.respondSuccess(ctx, http.StatusOK, h.store.Heatmap(stdCtx, httpcontext.UserID(ctx)))
}

// @Router /api/analytics/productivity [get]
func (h *AnalyticsHandler) Productivity(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	h.respondSuccess(ctx, http.StatusOK, h.store.Productivity(stdCtx, httpcontext.UserID(ctx)))
}

// @Router /api/analytics/events [post]
func (h *AnalyticsHandler) TrackEvent(ctx *fasthttp.RequestCtx) {
	var ev domain.Event
	if !h.decode(ctx, &ev) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.store.RecordEvent(stdCtx, httpcontext.UserID(ctx), ev); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, map[string]string{"message": "Event tracked"})
}
