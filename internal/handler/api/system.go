package api

import (
	"context"
	"errors"

	"TickerBot/internal/domain/models"
	domrepo "TickerBot/internal/domain/repository"
	"TickerBot/internal/service/notifier"
	"TickerBot/internal/usecase"
	xhttp "TickerBot/pkg/http"

	"github.com/labstack/echo/v4"
)

func (h *Handler) Root(c echo.Context) error {
	return xhttp.OKResponse(c, h.info)
}

func (h *Handler) Health(c echo.Context) error {
	return xhttp.OKResponse(c, map[string]string{"status": "ok"})
}

// Logs returns the tail of today's log, or of an earlier day with ?prev=N.
func (h *Handler) Logs(c echo.Context) error {
	lines := xhttp.ParseIntDefault(c.QueryParam("lines"), usecase.DefaultLogLines)
	prev := xhttp.ParseIntDefault(c.QueryParam("prev"), 0)

	content, err := h.logs.Tail(c.Request().Context(), lines, prev)
	if errors.Is(err, domrepo.ErrNotFound) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(err.Error()))
	}
	if err != nil {
		return h.fail(c, "logs.tail", err)
	}
	return xhttp.TextResponse(c, content, h.logs.FileName())
}

// RunCronjob runs the h1 or d1 job synchronously, scheduled or not.
func (h *Handler) RunCronjob(c echo.Context) error {
	req := &models.CronjobRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	// The run finishes even if the caller hangs up.
	ctx := context.WithoutCancel(c.Request().Context())
	if err := h.cron.Run(ctx, req.Interval); err != nil {
		return h.fail(c, "cronjob.run", err)
	}
	return xhttp.OKResponse(c, map[string]string{"interval": req.Interval})
}

func (h *Handler) Telegram(c echo.Context) error {
	return h.push(c, notifier.ChannelTelegram)
}

func (h *Handler) Discord(c echo.Context) error {
	return h.push(c, notifier.ChannelDiscord)
}

func (h *Handler) push(c echo.Context, channel string) error {
	req := &models.NotifyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	message := req.Msg
	if message == "" {
		message = "hello from " + h.info.Name
	}
	h.notify.Go(channel, message)
	return xhttp.OKResponse(c, map[string]string{"message": message})
}
