package api

import (
	"errors"

	"TickerBot/internal/domain/models"
	domrepo "TickerBot/internal/domain/repository"
	xhttp "TickerBot/pkg/http"

	"github.com/labstack/echo/v4"
)

func (h *Handler) AllSettings(c echo.Context) error {
	values, err := h.settings.All(c.Request().Context())
	if err != nil {
		return h.fail(c, "settings.all", err)
	}
	return xhttp.OKResponse(c, map[string]interface{}{"settings": values})
}

func (h *Handler) GetSetting(c echo.Context) error {
	req := &models.SettingKeyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	value, err := h.settings.Get(c.Request().Context(), req.Key)
	if errors.Is(err, domrepo.ErrNotFound) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("setting %q not found", req.Key))
	}
	if err != nil {
		return h.fail(c, "settings.get", err)
	}
	return xhttp.OKResponse(c, map[string]interface{}{"key": req.Key, "value": value})
}

func (h *Handler) SaveSetting(c echo.Context) error {
	req := &models.SettingRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.settings.Set(c.Request().Context(), req.Key, req.Value); err != nil {
		return h.fail(c, "settings.set", err)
	}
	return xhttp.OKResponse(c, map[string]interface{}{"key": req.Key, "value": req.Value})
}

func (h *Handler) DeleteSetting(c echo.Context) error {
	req := &models.SettingKeyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	existed, err := h.settings.Delete(c.Request().Context(), req.Key)
	if err != nil {
		return h.fail(c, "settings.delete", err)
	}
	return xhttp.OKResponse(c, map[string]interface{}{"key": req.Key, "value": existed})
}
