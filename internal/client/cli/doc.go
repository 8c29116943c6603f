// Package cli provides the interactive letterdesk template editor.
//
// It wires configuration, a template backend (the gRPC server, or a local
// SQLite file when offline), the zone store and the interaction engine, then
// reads commands from standard input. Pointer commands take screen
// coordinates, so the current zoom applies to them exactly as it would to a
// mouse.
//
// Typical session:
//
//	load t1
//	add
//	drag <zone-id> 40 -120
//	set <zone-id> name Recipient
//	toggle verification on
//	save
//	export L-2024-17
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
