package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one stored OHLC row. Prices keep the vendor's exact decimal text.
type Candle struct {
	ID       uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Ticker   string    `gorm:"column:ticker;not null" json:"ticker"`
	Interval string    `gorm:"column:interval;not null" json:"interval"`
	Date     time.Time `gorm:"column:date;not null" json:"date"`
	Open     string    `gorm:"column:open;not null" json:"open"`
	High     string    `gorm:"column:high;not null" json:"high"`
	Low      string    `gorm:"column:low;not null" json:"low"`
	Close    string    `gorm:"column:close;not null" json:"close"`
}

func (Candle) TableName() string { return "ohlc" }

// Bar is a raw vendor row before it is stamped with ticker and interval.
type Bar struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// CandleFilter narrows GetAll. Empty fields do not filter.
type CandleFilter struct {
	Ticker   string
	Interval string
}
