package cli

import (
	"strings"
	"time"

	"kofa_admin/internal/config"
)

// Options are the global flags. Zero values leave the loaded config alone.
type Options struct {
	APIURL  string
	Token   string
	Timeout time.Duration
	JSON    bool
	Debug   bool
	LogFile string
}

func (o Options) Apply(cfg *config.Config) {
	if v := strings.TrimSpace(o.APIURL); v != "" {
		cfg.APIBaseURL = v
	}
	if v := strings.TrimSpace(o.Token); v != "" {
		cfg.APIToken = v
	}
	if o.Timeout > 0 {
		cfg.Timeout = o.Timeout
	}
	if o.Debug {
		cfg.Debug = true
	}
	if v := strings.TrimSpace(o.LogFile); v != "" {
		cfg.LogFile = v
	}
}
