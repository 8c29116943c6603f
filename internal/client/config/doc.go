// Package config loads runtime configuration for the letterdesk editor.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-s string   shared secret for the service token
//	-m string   storage mode: grpc or sqlite
//	-l string   SQLite file for offline mode
//	-i string   template to open at start
//	-z float    initial zoom
//	-o string   output directory for exports and previews
//	-t duration timeout of one backend call, e.g. 5s
//	-v          verbose logging
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "mode": "sqlite",
//	  "local_db_path": "letters.db",
//	  "request_timeout": "10s"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
