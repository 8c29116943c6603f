package config

import "time"

// Mode selects where the editor keeps templates.
const (
	ModeGRPC   = "grpc"
	ModeSQLite = "sqlite"
)

// Config holds runtime settings for the letterdesk editor.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - SecretKey: shared HMAC secret used to mint the service token.
//   - Mode: grpc (server-backed) or sqlite (offline, local file).
//   - LocalDBPath: SQLite file used in offline mode.
//   - TemplateID: template to load at start; empty means none.
//   - Zoom: initial viewport zoom.
//   - OutputDir: where exported PDFs and previews are written.
//   - RequestTimeout: bound on a single backend call.
//   - Verbose: debug logging.
type Config struct {
	ServerEndpointAddr string
	SecretKey          string
	Mode               string
	LocalDBPath        string
	TemplateID         string
	Zoom               float64
	OutputDir          string
	RequestTimeout     time.Duration
	Verbose            bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.SecretKey = "secretKey"
	c.Mode = ModeGRPC
	c.LocalDBPath = "letterdesk.db"
	c.Zoom = 1
	c.OutputDir = "."
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
