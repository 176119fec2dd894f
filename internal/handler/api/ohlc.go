package api

import (
	"TickerBot/internal/domain/models"
	xhttp "TickerBot/pkg/http"

	"github.com/labstack/echo/v4"
)

// OHLC lists stored candles of a ticker for one interval, oldest first.
func (h *Handler) OHLC(c echo.Context) error {
	req := &models.OHLCRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.candles.GetCandles(c.Request().Context(), req.Ticker, req.Interval)
	if err != nil {
		return h.fail(c, "ohlc.get", err)
	}
	return xhttp.OKResponse(c, res.Candles)
}

// OHLCRefresh fetches from the vendor and stores the latest candles. The
// response is the fetched series, or the stored rows with ?result=stored.
func (h *Handler) OHLCRefresh(c echo.Context) error {
	req := &models.RefreshRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.refresh.Refresh(c.Request().Context(), req.Ticker, req.Interval)
	if err != nil {
		return h.fail(c, "ohlc.refresh", err)
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	if req.Result == "stored" {
		return xhttp.OKResponse(c, res.Stored)
	}
	return xhttp.OKResponse(c, res.Fetched)
}
