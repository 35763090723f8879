package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseGlobalFlags(t *testing.T) {
	flags, args, err := parseGlobalFlags([]string{
		"--config", "cfg.yaml", "--profile", "dev", "--roster", "team.yaml",
		"run", "write a haiku",
	})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if flags.ConfigPath != "cfg.yaml" || flags.Profile != "dev" || flags.RosterPath != "team.yaml" {
		t.Errorf("flags not parsed: %+v", flags)
	}
	if len(args) != 2 || args[0] != "run" {
		t.Errorf("unexpected remaining args %v", args)
	}
}

func TestParseGlobalFlagsErrors(t *testing.T) {
	if _, _, err := parseGlobalFlags([]string{"--config"}); err == nil {
		t.Error("expected error for missing value")
	}
	if _, _, err := parseGlobalFlags([]string{"--bogus", "x"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "team.yaml")
	manifest := `
roles:
  - name: writer
    actions:
      - name: Draft
        trigger: ensemble.user_request
`
	if err := os.WriteFile(path, []byte(manifest), 0644); err != nil {
		t.Fatalf("write roster: %v", err)
	}

	if err := validateCommand(globalFlags{RosterPath: path}, nil); err != nil {
		t.Errorf("valid roster rejected: %v", err)
	}
	if err := validateCommand(globalFlags{}, nil); err == nil {
		t.Error("expected error without --roster")
	}
}

func TestOneline(t *testing.T) {
	if got := oneline("a\nb"); got != "a b" {
		t.Errorf("newlines should flatten, got %q", got)
	}
	long := strings.Repeat("x", 120)
	if got := oneline(long); len(got) != 80 || !strings.HasSuffix(got, "...") {
		t.Errorf("long content should truncate, got %d chars", len(got))
	}
}
