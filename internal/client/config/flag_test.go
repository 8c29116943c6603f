package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		name        string
		args        []string
		want        *Config
		expectPanic bool
	}{
		{
			name: "offline session",
			args: []string{"editor", "-m", "sqlite", "-l", "x.db", "-i", "t1", "-z", "1.5", "-o", "out", "-v"},
			want: &Config{Mode: ModeSQLite, LocalDBPath: "x.db", TemplateID: "t1", Zoom: 1.5, OutputDir: "out", Verbose: true},
		},
		{
			name: "server session",
			args: []string{"editor", "-a", "10.0.0.5:50051", "-s", "k3y", "-m", "grpc", "-t", "3s"},
			want: &Config{ServerEndpointAddr: "10.0.0.5:50051", SecretKey: "k3y", Mode: ModeGRPC, RequestTimeout: 3 * time.Second},
		},
		{
			name: "unknown flags are ignored",
			args: []string{"editor", "-config", "cfg.json", "-m", "grpc", "--debug-ui"},
			want: &Config{Mode: ModeGRPC},
		},
		{name: "bad zoom", args: []string{"editor", "-m", "grpc", "-z", "abc"}, expectPanic: true},
		{name: "negative zoom", args: []string{"editor", "-m", "grpc", "-z=-2"}, expectPanic: true},
		{name: "bad timeout", args: []string{"editor", "-m", "grpc", "-t", "soon"}, expectPanic: true},
		{name: "unknown mode", args: []string{"editor", "-m", "ftp"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			cfg := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(cfg) })
				return
			}
			require.NotPanics(t, func() { parseFlags(cfg) })
			assert.Empty(t, cmp.Diff(tt.want, cfg))
		})
	}
}
