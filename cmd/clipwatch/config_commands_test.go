package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitCreatesSample(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration to "+target)
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil || !strings.Contains(err.Error(), "--overwrite") {
		t.Fatalf("expected overwrite refusal, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, "", ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	_, configPath := newCLIConfig(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, "", configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+configPath)
	requireContains(t, out, "Configuration valid")
}

func TestConfigValidateRejectsBadValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[detection]\nthreshold = 3.0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, err := runCLI(t, []string{"config", "validate"}, "", path)
	if err == nil || !strings.Contains(err.Error(), "detection.threshold") {
		t.Fatalf("expected threshold error, got %v", err)
	}
}

func TestConfigShowRedactsToken(t *testing.T) {
	cfg, configPath := newCLIConfig(t)
	cfg.API.Token = "s3cret"
	writeTestConfig(t, configPath, cfg)

	out, _, err := runCLI(t, []string{"config", "show"}, "", configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "s3cret") {
		t.Fatalf("token leaked in output:\n%s", out)
	}
	requireContains(t, out, redacted)
	requireContains(t, out, cfg.Paths.RecordingsDir)

	out, _, err = runCLI(t, []string{"config", "show", "--show-secrets"}, "", configPath)
	if err != nil {
		t.Fatalf("config show --show-secrets: %v", err)
	}
	requireContains(t, out, "s3cret")
}

func TestEnvFileAppliesBeforeConfig(t *testing.T) {
	_, configPath := newCLIConfig(t)
	envPath := filepath.Join(t.TempDir(), "clipwatch.env")
	if err := os.WriteFile(envPath, []byte("CLIPWATCH_API_TOKEN=from-env-file\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	os.Unsetenv("CLIPWATCH_API_TOKEN")

	out, _, err := runCLI(t, []string{"--env-file", envPath, "config", "show", "--show-secrets"}, "", configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "from-env-file")
}

func TestMissingEnvFileFails(t *testing.T) {
	_, configPath := newCLIConfig(t)
	_, _, err := runCLI(t, []string{"--env-file", filepath.Join(t.TempDir(), "nope.env"), "config", "show"}, "", configPath)
	if err == nil {
		t.Fatal("expected error for missing env file")
	}
}
