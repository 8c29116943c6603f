package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/letterdesk/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-D string   database driver: postgres, mysql, sqlite or mongo
//	-d string   database DSN
//	-s string   JWT HMAC secret key
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-r string   Redis address for the symbol cache
//	-q string   verification symbol endpoint
//	-f string   font directory
//	-n string   body and header font family
//	-x int      output raster scale
//	-t int      font load timeout, seconds
//	-m int      max gRPC message size, bytes
//	-j string   stray zone audit cron schedule
//	-o string   local export directory
//	-v          verbose logging
//
// Args are filtered with flagx.FilterArgs first, so flags owned by other
// components (-c/-config) do not collide.
func parseFlags(config *Config, osArgs []string) {
	args := flagx.FilterArgs(osArgs, []string{
		"-a", "-D", "-d", "-s", "-u", "-p", "-b", "-g", "-e",
		"-r", "-q", "-f", "-n", "-x", "-t", "-m", "-j", "-o",
	}, "-v")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDriver, "D", config.DatabaseDriver, "database driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.SymbolEndpoint, "q", config.SymbolEndpoint, "verification symbol endpoint")
	fs.StringVar(&config.FontDir, "f", config.FontDir, "font directory")
	fs.StringVar(&config.BodyFont, "n", config.BodyFont, "body and header font family")
	fs.IntVar(&config.OutputScale, "x", config.OutputScale, "output raster scale")
	fontTimeout := fs.Int("t", int(config.FontTimeout.Seconds()), "font load timeout (in seconds)")
	fs.IntVar(&config.MaxMessageSize, "m", config.MaxMessageSize, "max gRPC message size (in bytes)")
	fs.StringVar(&config.AuditSchedule, "j", config.AuditSchedule, "stray zone audit schedule")
	fs.StringVar(&config.ExportDir, "o", config.ExportDir, "local export directory")
	fs.BoolVar(&config.Verbose, "v", config.Verbose, "verbose logging")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.FontTimeout = time.Duration(*fontTimeout) * time.Second
}
