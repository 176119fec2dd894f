package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Refresh is the auto-refresh file, e.g. {"cronjob": {"refresh_tickers": ["BTC-USD"]}}.
// JSON is valid YAML, so the yaml decoder reads it.
type Refresh struct {
	Cronjob struct {
		RefreshTickers []string `yaml:"refresh_tickers" json:"refresh_tickers"`
	} `yaml:"cronjob" json:"cronjob"`
}

// Tickers returns the trimmed, de-duplicated ticker list in file order.
func (r *Refresh) Tickers() []string {
	seen := make(map[string]struct{}, len(r.Cronjob.RefreshTickers))
	out := make([]string, 0, len(r.Cronjob.RefreshTickers))
	for _, t := range r.Cronjob.RefreshTickers {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// LoadRefresh reads the refresh file. On error the returned value is still
// usable and empty, so callers may log and continue.
func LoadRefresh(path string) (*Refresh, error) {
	r := &Refresh{}

	b, err := os.ReadFile(path)
	if err != nil {
		return r, &ConfigError{Path: path, Err: err}
	}
	if err := yaml.Unmarshal(b, r); err != nil {
		return &Refresh{}, &ConfigError{Path: path, Err: fmt.Errorf("parse: %w", err)}
	}
	return r, nil
}
