package models

// Requests for the HTTP endpoints.

type SettingRequest struct {
	Key   string `query:"key" form:"key" json:"key" validate:"required"`
	Value string `query:"value" form:"value" json:"value"`
}

type SettingKeyRequest struct {
	Key string `param:"key" validate:"required"`
}

type CronjobRequest struct {
	Interval string `param:"interval" validate:"required,oneof=h1 d1"`
}

type NotifyRequest struct {
	Msg string `query:"msg" json:"msg"`
}

type OHLCRequest struct {
	Ticker   string `param:"ticker" validate:"required"`
	Interval string `param:"interval" validate:"required"`
}

type RefreshRequest struct {
	Ticker   string `param:"ticker" validate:"required"`
	Interval string `param:"interval" validate:"required"`
	Result   string `query:"result" default:"fetched" validate:"oneof=fetched stored"`
}
