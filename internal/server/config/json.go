package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/letterdesk/internal/flagx"
	"github.com/dmitrijs2005/letterdesk/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// Interval fields use timex.Duration, which accepts both strings such as
// "1s" and integer nanoseconds.
//
// It is an intermediate DTO; only fields present in the file (non-zero)
// override the target Config.
type JsonConfig struct {
	EndpointAddrGRPC string         `json:"endpoint_addr_grpc"`
	DatabaseDriver   string         `json:"database_driver"`
	DatabaseDSN      string         `json:"database_dsn"`
	SecretKey        string         `json:"secret_key"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	PresignTTL       timex.Duration `json:"presign_ttl"`
	RedisAddr        string         `json:"redis_addr"`
	RedisPassword    string         `json:"redis_password"`
	SymbolEndpoint   string         `json:"symbol_endpoint"`
	SymbolCacheTTL   timex.Duration `json:"symbol_cache_ttl"`
	FontDir          string         `json:"font_dir"`
	FontTimeout      timex.Duration `json:"font_timeout"`
	BodyFont         string         `json:"body_font"`
	OutputScale      int            `json:"output_scale"`
	ExportFormat     string         `json:"export_format"`
	ExportDir        string         `json:"export_dir"`
	PreviewZoom      float64        `json:"preview_zoom"`
	MaxMessageSize   int            `json:"max_message_size"`
	AuditSchedule    string         `json:"audit_schedule"`
	StrayZoneAge     timex.Duration `json:"stray_zone_age"`
	Verbose          bool           `json:"verbose"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson loads configuration values from the JSON file named by the
// -c or -config flag into config. Without the flag nothing is loaded.
// An unreadable file or invalid JSON panics.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.ConfigPath(args)
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setString(&config.SymbolEndpoint, c.SymbolEndpoint)
	setString(&config.FontDir, c.FontDir)
	setString(&config.BodyFont, c.BodyFont)
	setString(&config.ExportFormat, c.ExportFormat)
	setString(&config.ExportDir, c.ExportDir)
	setString(&config.AuditSchedule, c.AuditSchedule)

	if c.PresignTTL.Duration > 0 {
		config.PresignTTL = c.PresignTTL.Duration
	}
	if c.SymbolCacheTTL.Duration > 0 {
		config.SymbolCacheTTL = c.SymbolCacheTTL.Duration
	}
	if c.FontTimeout.Duration > 0 {
		config.FontTimeout = c.FontTimeout.Duration
	}
	if c.StrayZoneAge.Duration > 0 {
		config.StrayZoneAge = c.StrayZoneAge.Duration
	}
	if c.OutputScale > 0 {
		config.OutputScale = c.OutputScale
	}
	if c.PreviewZoom > 0 {
		config.PreviewZoom = c.PreviewZoom
	}
	if c.MaxMessageSize > 0 {
		config.MaxMessageSize = c.MaxMessageSize
	}
	if c.Verbose {
		config.Verbose = true
	}
}
