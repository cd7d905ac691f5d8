package api

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	"sigmapips/internal/domain/models"
	"sigmapips/internal/service/telegram"
	"sigmapips/internal/usecase"
	xhttp "sigmapips/pkg/http"
	xlogger "sigmapips/pkg/logger"
	"sigmapips/pkg/queue"

	"github.com/labstack/echo/v4"
)

// WebhookHandler terminates the inbound HTTP surface: the signal endpoints
// and the Telegram webhook. When a queue is wired, signals are acknowledged
// immediately and processed in the background; otherwise they run inline.
type WebhookHandler struct {
	logger     *xlogger.Logger
	pipeline   *usecase.Pipeline
	interactor *usecase.BotInteractor
	queue      queue.Service
}

// NewWebhookHandler creates the HTTP handler. queue may be nil to force
// synchronous processing.
func NewWebhookHandler(logger *xlogger.Logger, pipeline *usecase.Pipeline, interactor *usecase.BotInteractor, q queue.Service) *WebhookHandler {
	return &WebhookHandler{logger: logger, pipeline: pipeline, interactor: interactor, queue: q}
}

func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.POST("/signal", h.Signal)
	e.POST("/webhook", h.Webhook)
}

// Health is the liveness probe.
func (h *WebhookHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// Signal accepts a trading signal directly. Malformed payloads get a
// client-error status; valid ones are queued (fast ack) or processed
// inline when no queue is configured.
func (h *WebhookHandler) Signal(c echo.Context) error {
	req := &models.SignalRequest{}
	if errs := xhttp.ReadAndValidateRequest(c, req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}

	// validate up front so a queued payload can never bounce later
	if _, err := req.ToSignal(time.Now()); err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			return xhttp.BadRequestResponse(c, &xhttp.ValidationError{Field: ve.Field, Message: ve.Message})
		}
		return xhttp.BadRequestResponse(c, &xhttp.ValidationError{Message: err.Error()})
	}

	if h.queue != nil {
		if err := h.queue.PublishMessage(c.Request().Context(), usecase.SignalJobType, req); err == nil {
			return xhttp.SuccessResponse(c, map[string]string{"status": "queued"})
		} else {
			h.logger.Warn("enqueue failed, processing inline", xlogger.Error(err))
		}
	}

	report, err := h.pipeline.HandleSignal(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("signal processing failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("signal processing failed"))
	}
	return xhttp.SuccessResponse(c, report)
}

// Webhook receives both Telegram updates and raw signals on one endpoint.
// The response is always 2xx so neither Telegram nor the signal source
// retries on partial failures.
func (h *WebhookHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return xhttp.SuccessResponse(c, map[string]string{"status": "error"})
	}

	if upd := decodeUpdate(body); upd != nil {
		if err := h.interactor.HandleUpdate(c.Request().Context(), upd); err != nil {
			h.logger.Error("telegram update failed", xlogger.Error(err))
			return xhttp.SuccessResponse(c, map[string]string{"status": "error"})
		}
		return xhttp.SuccessResponse(c, map[string]string{"status": "success"})
	}

	req := &models.SignalRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		return xhttp.SuccessResponse(c, map[string]string{"status": "error", "reason": "unrecognized payload"})
	}
	if _, err := req.ToSignal(time.Now()); err != nil {
		h.logger.Warn("webhook signal rejected", xlogger.Error(err))
		return xhttp.SuccessResponse(c, map[string]string{"status": "error", "reason": err.Error()})
	}

	if h.queue != nil {
		if err := h.queue.PublishMessage(c.Request().Context(), usecase.SignalJobType, req); err == nil {
			return xhttp.SuccessResponse(c, map[string]string{"status": "success"})
		} else {
			h.logger.Warn("enqueue failed, processing inline", xlogger.Error(err))
		}
	}

	if _, err := h.pipeline.HandleSignal(c.Request().Context(), req); err != nil {
		h.logger.Error("webhook signal failed", xlogger.Error(err))
		return xhttp.SuccessResponse(c, map[string]string{"status": "error"})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "success"})
}

// decodeUpdate returns a Telegram update if the body looks like one.
func decodeUpdate(body []byte) *telegram.Update {
	var upd telegram.Update
	if err := json.Unmarshal(body, &upd); err != nil {
		return nil
	}
	if upd.UpdateID == 0 && upd.Message == nil && upd.CallbackQuery == nil {
		return nil
	}
	return &upd
}
