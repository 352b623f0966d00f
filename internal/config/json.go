package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/focuskeeper/internal/flagx"
	"github.com/dmitrijs2005/focuskeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "60s"
// or as integer nanoseconds.
type JsonConfig struct {
	DatabaseDSN        string         `json:"database_dsn"`
	RemoteEndpointAddr string         `json:"remote_endpoint_addr"`
	TokenEndpointAddr  string         `json:"token_endpoint_addr"`
	UserID             string         `json:"user_id"`
	SyncInterval       timex.Duration `json:"sync_interval"`
	TokenTimeout       timex.Duration `json:"token_timeout"`
	RemoteTimeout      timex.Duration `json:"remote_timeout"`
	LogFile            string         `json:"log_file"`
	LogFormat          string         `json:"log_format"`
}

// parseJson overlays cfg with values loaded from the JSON file named by the
// -c/-config flags. Missing flag means no JSON is loaded. Read or unmarshal
// errors panic (caller should recover if desired). Zero-valued JSON fields
// leave the existing value in place.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.RemoteEndpointAddr != "" {
		cfg.RemoteEndpointAddr = jc.RemoteEndpointAddr
	}
	if jc.TokenEndpointAddr != "" {
		cfg.TokenEndpointAddr = jc.TokenEndpointAddr
	}
	if jc.UserID != "" {
		cfg.UserID = jc.UserID
	}
	if jc.SyncInterval.Duration != 0 {
		cfg.SyncInterval = time.Duration(jc.SyncInterval.Duration)
	}
	if jc.TokenTimeout.Duration != 0 {
		cfg.TokenTimeout = time.Duration(jc.TokenTimeout.Duration)
	}
	if jc.RemoteTimeout.Duration != 0 {
		cfg.RemoteTimeout = time.Duration(jc.RemoteTimeout.Duration)
	}
	if jc.LogFile != "" {
		cfg.LogFile = jc.LogFile
	}
	if jc.LogFormat != "" {
		cfg.LogFormat = jc.LogFormat
	}
}
