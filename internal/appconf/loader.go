package appconf

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"flex.onebusaway.org/internal/flex"
)

// FileConfig mirrors the on-disk configuration. Pointer fields distinguish
// an explicit zero from an unset value.
type FileConfig struct {
	Env      string `yaml:"env" validate:"omitempty,oneof=development test production"`
	LogLevel string `yaml:"log-level" validate:"omitempty,oneof=debug info warn warning error"`
	Verbose  bool   `yaml:"verbose"`

	Gtfs struct {
		URL                   string `yaml:"url" validate:"required"`
		StaticAuthHeaderKey   string `yaml:"auth-header-key"`
		StaticAuthHeaderValue string `yaml:"auth-header-value" validate:"required_with=StaticAuthHeaderKey"`
		RefreshInterval       string `yaml:"refresh-interval"`
	} `yaml:"gtfs"`

	Router struct {
		AdditionalPastSearchDays   *int     `yaml:"additional-past-search-days" validate:"omitempty,gte=0,lte=14"`
		AdditionalFutureSearchDays *int     `yaml:"additional-future-search-days" validate:"omitempty,gte=0,lte=14"`
		MaxTransferMeters          *float64 `yaml:"max-transfer-meters" validate:"omitempty,gte=0"`
		WalkSpeed                  float64  `yaml:"walk-speed" validate:"omitempty,gt=0"`
		MaxAccessWalkMeters        float64  `yaml:"max-access-walk-meters" validate:"omitempty,gt=0"`
		PathCalculator             string   `yaml:"path-calculator" validate:"omitempty,oneof=direct street"`
		DetourFactor               float64  `yaml:"detour-factor" validate:"omitempty,gte=1"`
		Speed                      float64  `yaml:"speed" validate:"omitempty,gt=0"`
		ExtraTimeSeconds           *int     `yaml:"extra-time-seconds" validate:"omitempty,gte=0"`
		MaxFlexMeters              float64  `yaml:"max-flex-meters" validate:"omitempty,gt=0"`
		Parallelism                int      `yaml:"parallelism" validate:"gte=0"`
		EgressMode                 string   `yaml:"egress-mode" validate:"omitempty,oneof=raptor direct"`
	} `yaml:"router"`

	Metrics struct {
		Enabled       *bool  `yaml:"enabled"`
		StatsInterval string `yaml:"stats-interval"`
	} `yaml:"metrics"`

	Server struct {
		Port          int      `yaml:"port" validate:"omitempty,gte=1,lte=65535"`
		RateLimit     *int     `yaml:"rate-limit" validate:"omitempty,gte=0"`
		ExemptClients []string `yaml:"exempt-clients" validate:"dive,required"`
		StaleAfter    string   `yaml:"stale-after"`
	} `yaml:"server"`
}

// LoadFromFile reads, validates and resolves a configuration file.
func LoadFromFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a configuration document. YAML is a superset of JSON, so
// both formats are accepted.
func Parse(data []byte) (*Config, error) {
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := fc.Validate(); err != nil {
		return nil, err
	}
	cfg, err := fc.Resolve()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (fc *FileConfig) Validate() error {
	if err := validator.New().Struct(fc); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			fields := make([]string, 0, len(invalid))
			for _, fe := range invalid {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Resolve applies defaults to every unset value.
func (fc *FileConfig) Resolve() (Config, error) {
	cfg := Default()
	if fc.Env != "" {
		cfg.Env = EnvFlagToEnvironment(fc.Env)
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	cfg.Verbose = fc.Verbose

	cfg.Gtfs.URL = fc.Gtfs.URL
	cfg.Gtfs.StaticAuthHeaderKey = fc.Gtfs.StaticAuthHeaderKey
	cfg.Gtfs.StaticAuthHeaderValue = fc.Gtfs.StaticAuthHeaderValue
	if fc.Gtfs.RefreshInterval != "" {
		d, err := parsePositiveDuration("gtfs.refresh-interval", fc.Gtfs.RefreshInterval)
		if err != nil {
			return Config{}, err
		}
		cfg.Gtfs.RefreshInterval = d
	}

	r := &cfg.Router
	if v := fc.Router.AdditionalPastSearchDays; v != nil {
		r.AdditionalPastSearchDays = *v
	}
	if v := fc.Router.AdditionalFutureSearchDays; v != nil {
		r.AdditionalFutureSearchDays = *v
	}
	if v := fc.Router.MaxTransferMeters; v != nil {
		r.MaxTransferMeters = *v
	}
	if fc.Router.WalkSpeed > 0 {
		r.WalkSpeedMetersPerSecond = fc.Router.WalkSpeed
	}
	if fc.Router.MaxAccessWalkMeters > 0 {
		r.MaxAccessWalkMeters = fc.Router.MaxAccessWalkMeters
	}
	if fc.Router.PathCalculator != "" {
		r.PathCalculator = fc.Router.PathCalculator
	}
	if fc.Router.DetourFactor > 0 {
		r.DetourFactor = fc.Router.DetourFactor
	}
	if fc.Router.Speed > 0 {
		r.SpeedMetersPerSecond = fc.Router.Speed
	}
	if v := fc.Router.ExtraTimeSeconds; v != nil {
		r.ExtraTimeSeconds = *v
	}
	if fc.Router.MaxFlexMeters > 0 {
		r.MaxFlexMeters = fc.Router.MaxFlexMeters
	}
	r.Parallelism = fc.Router.Parallelism
	if fc.Router.EgressMode == "direct" {
		r.EgressMode = flex.EgressModeDirect
	}

	if fc.Metrics.Enabled != nil {
		cfg.Metrics.Enabled = *fc.Metrics.Enabled
	}
	if fc.Metrics.StatsInterval != "" {
		d, err := parsePositiveDuration("metrics.stats-interval", fc.Metrics.StatsInterval)
		if err != nil {
			return Config{}, err
		}
		cfg.Metrics.StatsInterval = d
	}

	if fc.Server.Port != 0 {
		cfg.Server.Port = fc.Server.Port
	}
	if v := fc.Server.RateLimit; v != nil {
		cfg.Server.RateLimit = *v
	}
	cfg.Server.ExemptClients = fc.Server.ExemptClients
	if fc.Server.StaleAfter != "" {
		d, err := parsePositiveDuration("server.stale-after", fc.Server.StaleAfter)
		if err != nil {
			return Config{}, err
		}
		cfg.Server.StaleAfter = d
	}
	return cfg, nil
}

func parsePositiveDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid configuration: %s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid configuration: %s must be positive", field)
	}
	return d, nil
}
