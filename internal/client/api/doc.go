// Package api is the editor's gRPC client for the template server. GRPCClient
// satisfies zonestore.Persistence, so a Store can save straight to the
// server, and adds the server-only export and preview calls.
package api
