package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/letterdesk/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the backend server (default from Config)
//	-s string   shared secret
//	-m string   grpc or sqlite
//	-l string   SQLite path
//	-i string   template id
//	-z float    zoom
//	-o string   output directory
//	-t duration timeout of one backend call
//	-v          verbose logging
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-s", "-m", "-l", "-i", "-z", "-o", "-t"}, "-v")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "shared secret")
	fs.StringVar(&cfg.Mode, "m", cfg.Mode, "storage mode (grpc or sqlite)")
	fs.StringVar(&cfg.LocalDBPath, "l", cfg.LocalDBPath, "local database path")
	fs.StringVar(&cfg.TemplateID, "i", cfg.TemplateID, "template to open")
	fs.Float64Var(&cfg.Zoom, "z", cfg.Zoom, "initial zoom")
	fs.StringVar(&cfg.OutputDir, "o", cfg.OutputDir, "output directory")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "backend call timeout")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose logging")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if cfg.Mode != ModeGRPC && cfg.Mode != ModeSQLite {
		panic("unknown mode " + cfg.Mode)
	}
	if cfg.Zoom < 0 {
		panic("zoom must not be negative")
	}
}
