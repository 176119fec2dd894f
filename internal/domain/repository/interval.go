package repository

import (
	"strconv"
	"strings"
	"time"
)

// Interval is the canonical bar width stored with every candle.
type Interval string

const (
	IntervalM5  Interval = "m5"
	IntervalM15 Interval = "m15"
	IntervalH1  Interval = "h1"
	IntervalH4  Interval = "h4"
	IntervalD1  Interval = "d1"
)

// Intervals lists every canonical interval.
var Intervals = []Interval{IntervalM5, IntervalM15, IntervalH1, IntervalH4, IntervalD1}

// intervalAliases is keyed by lower-cased input.
var intervalAliases = map[string]Interval{
	"5": IntervalM5, "m5": IntervalM5, "5m": IntervalM5,
	"15": IntervalM15, "m15": IntervalM15, "15m": IntervalM15,
	"60": IntervalH1, "h1": IntervalH1, "1h": IntervalH1,
	"240": IntervalH4, "h4": IntervalH4, "4h": IntervalH4,
	"d1": IntervalD1, "1d": IntervalD1, "d": IntervalD1,
}

// providerCodes maps canonical intervals to vendor interval strings.
// The vendor has no 4-hour bars.
var providerCodes = map[Interval]string{
	IntervalM5:  "5m",
	IntervalM15: "15m",
	IntervalH1:  "1h",
	IntervalD1:  "1d",
}

// providerNative are vendor intervals accepted verbatim.
var providerNative = map[string]struct{}{
	"1m": {}, "2m": {}, "5m": {}, "15m": {}, "30m": {}, "60m": {}, "90m": {},
	"1h": {}, "1d": {}, "5d": {}, "1wk": {}, "1mo": {}, "3mo": {},
}

var intradayProviderCodes = map[string]struct{}{
	"1m": {}, "2m": {}, "5m": {}, "15m": {}, "30m": {}, "60m": {}, "90m": {}, "1h": {},
}

// NormalizeInterval maps any supported spelling to its canonical interval.
func NormalizeInterval(raw string) (Interval, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if iv, ok := intervalAliases[key]; ok {
		return iv, nil
	}
	return "", &IntervalError{Value: raw}
}

// IntervalFromMinutes maps a bar width in minutes to its canonical interval.
func IntervalFromMinutes(minutes int) (Interval, error) {
	return NormalizeInterval(strconv.Itoa(minutes))
}

// ToProviderFormat converts an interval spelling to the vendor's interval string.
// Vendor-native spellings pass through unchanged.
func ToProviderFormat(raw string) (string, error) {
	if iv, err := NormalizeInterval(raw); err == nil {
		code, ok := providerCodes[iv]
		if !ok {
			return "", &IntervalError{Value: raw, Provider: true}
		}
		return code, nil
	}
	code := strings.TrimSpace(raw)
	if _, ok := providerNative[code]; ok {
		return code, nil
	}
	return "", &IntervalError{Value: raw, Provider: true}
}

// Intraday reports whether the interval is shorter than a day.
func (i Interval) Intraday() bool {
	return i != IntervalD1
}

func (i Interval) String() string { return string(i) }

// IsIntradayProviderInterval reports whether a vendor interval belongs to the sub-daily family.
func IsIntradayProviderInterval(code string) bool {
	_, ok := intradayProviderCodes[code]
	return ok
}

// LookbackWindow is how far back a refresh asks the vendor for data.
func LookbackWindow(providerInterval string) time.Duration {
	switch {
	case IsIntradayProviderInterval(providerInterval):
		return 2 * 24 * time.Hour
	case providerInterval == "1d":
		return 7 * 24 * time.Hour
	case providerInterval == "5d":
		return 15 * 24 * time.Hour
	default:
		return 100 * 24 * time.Hour
	}
}
