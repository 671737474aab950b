package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	flag "github.com/spf13/pflag"

	"goftpd/config"
	"goftpd/internal/command"
)

// TestExecute_Version verifies --version prints a version string.
func TestExecute_Version(t *testing.T) {
	var out bytes.Buffer
	if err := execute(context.Background(), []string{"--version"}, nil, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out.String(), "goftpd ") {
		t.Errorf("output = %q", out.String())
	}
}

// TestExecute_Help verifies --help returns without error.
func TestExecute_Help(t *testing.T) {
	if err := Execute(context.Background(), []string{"--help"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExecute_DryRun verifies --dry-run validates and exits cleanly.
func TestExecute_DryRun(t *testing.T) {
	err := Execute(context.Background(), []string{
		"-l", "127.0.0.1:2121", "-t", "60", "--dry-run",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExecute_DryRunInvalid verifies --dry-run still catches bad configs.
func TestExecute_DryRunInvalid(t *testing.T) {
	err := Execute(context.Background(), []string{"-E", "klingon-8", "--dry-run"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "--encoding") {
		t.Errorf("error should name the flag: %v", err)
	}
}

// TestExecute_InvalidFlags verifies unknown flags produce an error.
func TestExecute_InvalidFlags(t *testing.T) {
	if err := Execute(context.Background(), []string{"--nonexistent-flag"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestExecute_StrayArgument(t *testing.T) {
	err := Execute(context.Background(), []string{"--dry-run", "ftp.example.com"})
	if err == nil || !strings.Contains(err.Error(), "unexpected argument") {
		t.Fatalf("err = %v", err)
	}
}

func TestExecute_ServesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := Execute(ctx, []string{"-l", "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestLoadConfig_Precedence verifies flags beat env, env beats the
// file, and the file beats defaults.
func TestLoadConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goftpd.yaml")
	body := "listen: \":2000\"\nidle_timeout: 100\nbuffer_size: 4096\nencoding: latin1\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOFTPD_CONFIG", path)
	t.Setenv("GOFTPD_IDLE_TIMEOUT", "200")
	t.Setenv("GOFTPD_BUFFER_SIZE", "8192")

	var fv flagValues
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.IntVar(&fv.bufferSize, "buffer-size", 0, "")
	fs.IntVar(&fv.idleTimeout, "idle-timeout", 0, "")
	fs.StringVar(&fv.listen, "listen", "", "")
	fs.StringVar(&fv.configFile, "config", "", "")
	if err := fs.Parse([]string{"--buffer-size", "1024"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(fs, &fv)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":2000" {
		t.Errorf("Listen = %q, want file value", cfg.Listen)
	}
	if cfg.IdleTimeout != 200*time.Second {
		t.Errorf("IdleTimeout = %s, want env value", cfg.IdleTimeout)
	}
	if cfg.BufferSize != 1024 {
		t.Errorf("BufferSize = %d, want flag value", cfg.BufferSize)
	}
	if cfg.Encoding != "latin1" {
		t.Errorf("Encoding = %q, want file value", cfg.Encoding)
	}
	if cfg.MaxLoginFailures != config.DefaultMaxLoginFailures {
		t.Errorf("MaxLoginFailures = %d, want default", cfg.MaxLoginFailures)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q", cfg.ConfigFile)
	}
}

func TestPasswd_FromPipe(t *testing.T) {
	var out bytes.Buffer
	err := execute(context.Background(), []string{"passwd", "Alice"}, strings.NewReader("hunter2\n"), &out)
	if err != nil {
		t.Fatalf("passwd: %v", err)
	}

	cfg := config.Default()
	path := filepath.Join(t.TempDir(), "users.yaml")
	if err := os.WriteFile(path, out.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := config.LoadFile(path, cfg); err != nil {
		t.Fatalf("generated snippet does not load: %v\n%s", err, out.String())
	}
	if !command.Users(cfg.Users).Verify("alice", "hunter2") {
		t.Errorf("hash in %q does not verify", out.String())
	}
}

func TestPasswd_Empty(t *testing.T) {
	err := execute(context.Background(), []string{"passwd"}, strings.NewReader("\n"), &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for empty password")
	}
}
