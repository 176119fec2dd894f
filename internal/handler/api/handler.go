package api

import (
	"errors"

	domrepo "TickerBot/internal/domain/repository"
	"TickerBot/internal/usecase"
	xhttp "TickerBot/pkg/http"
	xlogger "TickerBot/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AppInfo is reported by GET /.
type AppInfo struct {
	Name        string `json:"app_name"`
	Version     string `json:"app_version"`
	EnabledCron bool   `json:"enabled_cron"`
}

// Notifier delivers fire-and-forget chat messages.
type Notifier interface {
	Go(channel, text string)
}

// Handler serves the bot's HTTP API.
type Handler struct {
	info     AppInfo
	settings *usecase.SettingsUseCase
	candles  *usecase.CandlesUseCase
	refresh  *usecase.RefreshUseCase
	cron     *usecase.CronJobs
	logs     *usecase.LogsUseCase
	notify   Notifier
	logger   *xlogger.Logger
}

func NewHandler(
	info AppInfo,
	settings *usecase.SettingsUseCase,
	candles *usecase.CandlesUseCase,
	refresh *usecase.RefreshUseCase,
	cron *usecase.CronJobs,
	logs *usecase.LogsUseCase,
	notify Notifier,
	logger *xlogger.Logger,
) *Handler {
	return &Handler{
		info:     info,
		settings: settings,
		candles:  candles,
		refresh:  refresh,
		cron:     cron,
		logs:     logs,
		notify:   notify,
		logger:   logger,
	}
}

var _ xhttp.Handler = (*Handler)(nil)

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)

	e.GET("/settings", h.AllSettings)
	e.GET("/settings/:key", h.GetSetting)
	e.POST("/settings", h.SaveSetting)
	e.DELETE("/settings/:key", h.DeleteSetting)

	e.GET("/logs", h.Logs)
	e.GET("/cronjob/:interval", h.RunCronjob)

	e.GET("/telegram", h.Telegram)
	e.GET("/discord", h.Discord)

	e.GET("/ohlc/:ticker/:interval", h.OHLC)
	e.GET("/ohlc/:ticker/:interval/refresh", h.OHLCRefresh)
}

// fail maps domain errors onto the error envelope.
func (h *Handler) fail(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, domrepo.ErrUnknownInterval):
		appErr := xhttp.InvalidParamError(xhttp.CodeInterval, "interval", err.Error()).WithError(err)
		var ie *domrepo.IntervalError
		if errors.As(err, &ie) {
			appErr.WithParam("value", ie.Value)
		}
		return xhttp.AppErrorResponse(c, appErr.WithParam("options", domrepo.Intervals))
	case errors.Is(err, domrepo.ErrNotFound):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(err.Error()).WithError(err))
	}

	h.logger.Error(op+" failed",
		xlogger.String("path", c.Path()),
		xlogger.Error(err),
	)
	return xhttp.InternalServerErrorResponse(c)
}
