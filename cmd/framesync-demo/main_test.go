package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	framesync "github.com/jonoton/go-framesync"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "framesync.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestRunPlaysAutoplaySourceToCompletion(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	path := writeConfig(t, `
listen: ""
fps: 240
autoplay: "synthetic:4x2@100/5"
log:
  level: error
`)
	if err := run(ctx, path, noEnvFile(t)); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("run returned only because the test deadline expired")
	}
}

func TestRunReturnsStartupErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{name: "unknown autoplay source", yaml: "listen: \"\"\nautoplay: missing\nlog:\n  level: error\n", want: framesync.ErrSourceNotFound},
		{name: "oversized autoplay source", yaml: "listen: \"\"\nautoplay: \"synthetic:100000x10@30/10\"\nlog:\n  level: error\n", want: framesync.ErrDecode},
		{name: "nothing to do", yaml: "listen: \"\"\nlog:\n  level: error\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			err := run(ctx, writeConfig(t, tt.yaml), noEnvFile(t))
			if err == nil {
				t.Fatal("Expected run to return an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}
