package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/letterdesk/internal/flagx"
	"github.com/dmitrijs2005/letterdesk/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	SecretKey          string         `json:"secret_key"`
	Mode               string         `json:"mode"`
	LocalDBPath        string         `json:"local_db_path"`
	TemplateID         string         `json:"template_id"`
	Zoom               float64        `json:"zoom"`
	OutputDir          string         `json:"output_dir"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
	Verbose            bool           `json:"verbose"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from -c or -config; without either nothing is loaded.
// Keys absent from the file leave the current value untouched.
// Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])
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

	for dst, v := range map[*string]string{
		&cfg.ServerEndpointAddr: jc.ServerEndpointAddr,
		&cfg.SecretKey:          jc.SecretKey,
		&cfg.Mode:               jc.Mode,
		&cfg.LocalDBPath:        jc.LocalDBPath,
		&cfg.TemplateID:         jc.TemplateID,
		&cfg.OutputDir:          jc.OutputDir,
	} {
		if v != "" {
			*dst = v
		}
	}
	if jc.Zoom > 0 {
		cfg.Zoom = jc.Zoom
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.Verbose {
		cfg.Verbose = true
	}
}
