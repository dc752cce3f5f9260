package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetEnvReturnsValueWhenSet(t *testing.T) {
	t.Setenv("TEST_GETENV_SET", "custom-value")

	if got := getEnv("TEST_GETENV_SET", "fallback"); got != "custom-value" {
		t.Errorf("expected %q, got %q", "custom-value", got)
	}
}

func TestGetEnvReturnsFallbackWhenEmpty(t *testing.T) {
	t.Setenv("TEST_GETENV_EMPTY", "")

	if got := getEnv("TEST_GETENV_EMPTY", "default-value"); got != "default-value" {
		t.Errorf("expected fallback, got %q", got)
	}
	if got := getEnv("TEST_GETENV_NEVER_SET_PARTKEEPER", "default-value"); got != "default-value" {
		t.Errorf("expected fallback for unset var, got %q", got)
	}
}

func TestGetEnvInt64(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int64
	}{
		{"Valid", "1048576", 1048576},
		{"Invalid", "lots", 42},
		{"Empty", "", 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_GETENV_INT", tt.value)
			if got := getEnvInt64("TEST_GETENV_INT", 42); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestStoreBackend(t *testing.T) {
	const dbURL = "postgres://localhost/partkeeper"
	tests := []struct {
		name     string
		explicit string
		dbURL    string
		file     string
		want     string
		wantErr  bool
	}{
		{"DefaultsToMemory", "", "", "", "memory", false},
		{"DatabaseWins", "", dbURL, "songs.json", "postgres", false},
		{"FileWhenNoDatabase", "", "", "songs.json", "file", false},
		{"ExplicitMemory", "memory", dbURL, "", "memory", false},
		{"ExplicitFile", " FILE ", dbURL, "songs.json", "file", false},
		{"PostgresWithoutURL", "postgres", "", "", "", true},
		{"FileWithoutPath", "file", "", "", "", true},
		{"Unknown", "redis", "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := storeBackend(tt.explicit, tt.dbURL, tt.file)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestStaticFS(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	fsys, err := staticFS(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := fsys.Open("index.html"); err != nil {
		t.Errorf("expected index.html: %v", err)
	}

	if _, err := staticFS(filepath.Join(dir, "index.html")); err == nil {
		t.Error("expected error for a file path")
	}
	if _, err := staticFS(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for a missing dir")
	}
}
