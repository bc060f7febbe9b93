package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProfile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestValidProfiles(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "local.yaml", "name: local\nextends: wikipedia\ntags: [widget]\n")
	writeProfile(t, dir, "README.md", "not a profile")

	var stderr bytes.Buffer
	if err := appMain([]string{"-dir", dir}, &stderr); err != nil {
		t.Fatalf("appMain: %v (stderr %q)", err, stderr.String())
	}
}

func TestInvalidProfiles(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "typed.yaml", "name: typed\ntags: {a: b}\n")
	writeProfile(t, dir, "misnamed.yaml", "name: other\ntags: [ref]\n")
	writeProfile(t, dir, "orphan.yaml", "name: orphan\nextends: nowhere\ntags: [ref]\n")
	writeProfile(t, dir, "good.yaml", "name: good\ntags: [ref]\n")

	var stderr bytes.Buffer
	err := appMain([]string{"-dir", dir}, &stderr)
	if err == nil || !strings.Contains(err.Error(), "3 of 4 profiles failed") {
		t.Fatalf("expected three failures, got %v", err)
	}
	if !strings.Contains(stderr.String(), "Profile errors:") {
		t.Errorf("expected type errors on stderr, got %q", stderr.String())
	}
}

func TestDirRequired(t *testing.T) {
	var stderr bytes.Buffer
	if err := appMain(nil, &stderr); err == nil {
		t.Fatal("expected error without -dir")
	}
}
