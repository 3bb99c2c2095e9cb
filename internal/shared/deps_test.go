package shared

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub binaries use shell scripts")
	}

	dir := t.TempDir()
	stub := filepath.Join(dir, "fake-ffmpeg")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("failed to write stub: %v", err)
	}

	statuses := CheckBinaries([]Requirement{
		{Name: "ffmpeg", Command: stub},
		{Name: "yt-dlp", Command: filepath.Join(dir, "missing")},
		{Name: "ffprobe", Command: filepath.Join(dir, "missing"), Optional: true},
		{Name: "empty", Command: "  "},
	})

	if len(statuses) != 4 {
		t.Fatalf("expected 4 statuses, got %d", len(statuses))
	}
	if !statuses[0].Available || statuses[0].Path != stub {
		t.Errorf("expected stub to be available at %s, got %+v", stub, statuses[0])
	}
	if statuses[1].Available || statuses[1].Detail == "" {
		t.Errorf("expected missing binary with detail, got %+v", statuses[1])
	}
	if statuses[3].Detail != "command not configured" {
		t.Errorf("expected unconfigured detail, got %q", statuses[3].Detail)
	}

	missing := MissingRequired(statuses)
	if len(missing) != 2 || missing[0] != "yt-dlp" || missing[1] != "empty" {
		t.Errorf("expected yt-dlp and empty to be missing, got %v", missing)
	}
}

func TestToolRequirements(t *testing.T) {
	reqs := ToolRequirements(DefaultConfig().Tools)
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requirements, got %d", len(reqs))
	}
	if reqs[1].Command != "ffmpeg" || reqs[1].Optional {
		t.Errorf("unexpected ffmpeg requirement %+v", reqs[1])
	}
	if !reqs[2].Optional {
		t.Error("ffprobe should be optional")
	}
}
