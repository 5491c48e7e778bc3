package main

import (
	"encoding"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

type config struct {
	Auth       authConfig       `json:"auth" envPrefix:"AUTH_"`
	Filesystem filesystemConfig `json:"filesystem" envPrefix:"FILESYSTEM_"`
	Cache      cacheConfig      `json:"cache" envPrefix:"CACHE_"`
}

type authConfig struct {
	Enabled bool              `json:"enabled" env:"ENABLED" envDefault:"true"`
	Users   map[string]string `json:"users" env:"USERS,expand"`
}

type filesystemConfig struct {
	Dir string `json:"dir" env:"DIR,expand" envDefault:"./data" validate:"required"`
}

type cacheConfig struct {
	Mode    string   `json:"mode" env:"MODE" envDefault:"memory" validate:"oneof=disabled memory file redis"`
	Expiry  duration `json:"expiry" env:"EXPIRY" envDefault:"5m"`
	Options *rawJSON `json:"options" env:"OPTIONS,expand"`
	// Expression deciding which directories are cached, see cache.ExprRule
	Rule string `json:"rule" env:"RULE"`
}

type rawJSON struct {
	Value any
}

// UnmarshalJSON implements [json.Unmarshaler].
func (j *rawJSON) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &j.Value); err != nil {
		return err
	}

	return nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (j *rawJSON) UnmarshalText(text []byte) error {
	if err := json.Unmarshal(text, &j.Value); err != nil {
		return err
	}

	return nil
}

// duration accepts Go duration strings ("90s", "5m") in both JSON and
// environment variables.
type duration time.Duration

// UnmarshalJSON implements [json.Unmarshaler].
func (d *duration) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.WithStack(err)
	}

	return d.UnmarshalText([]byte(raw))
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = 0
		return nil
	}

	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.WithStack(err)
	}

	*d = duration(parsed)

	return nil
}

var _ encoding.TextUnmarshaler = &rawJSON{}
var _ json.Unmarshaler = &rawJSON{}
var _ encoding.TextUnmarshaler = new(duration)
var _ json.Unmarshaler = new(duration)
