package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadConfig_EnvFileOverridesBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "db:\n  host: base-host\n  port: 5432\nserver:\n  port: \":8080\"\n")
	writeFile(t, dir, "local.yaml", "db:\n  host: local-host\n")

	merged, err := LoadConfig("local", dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	db, ok := merged["db"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected db section, got %#v", merged["db"])
	}
	if db["host"] != "local-host" {
		t.Fatalf("expected host overridden, got %v", db["host"])
	}
	if db["port"] != 5432 {
		t.Fatalf("expected port kept from base, got %v", db["port"])
	}
}

func TestLoadConfig_MissingEnvFileKeepsBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "jwt:\n  ttl_hours: 24\n")

	merged, err := LoadConfig("staging", dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	jwt := merged["jwt"].(map[string]interface{})
	if jwt["ttl_hours"] != 24 {
		t.Fatalf("expected base value, got %v", jwt["ttl_hours"])
	}
}

func TestDecode_IntoTypedStruct(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "db:\n  host: h\n  port: 6543\n  name: portal\n")

	var out struct {
		DB DBConfig `yaml:"db"`
	}
	if err := Decode("missing-env", dir, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.DB.Host != "h" || out.DB.Port != 6543 || out.DB.Name != "portal" {
		t.Fatalf("unexpected decoded config: %+v", out.DB)
	}
}

func TestLoadConfig_MissingBase(t *testing.T) {
	if _, err := LoadConfig("local", t.TempDir()); err == nil {
		t.Fatalf("expected error when base.yaml is missing")
	}
}
