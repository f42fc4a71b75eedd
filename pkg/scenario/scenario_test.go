package scenario

import (
	"os"
	"path/filepath"
	"testing"
)

func writeScenarioFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestLoadFromParsesActivities(t *testing.T) {
	path := writeScenarioFile(t, `
activities:
  - alias: reads
    params:
      threads: "8"
      stride: "10"
      cyclerate: "1000,1.0"
  - alias: writes
    params:
      threads: "2"
      async: "true"
`)

	defs, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom returned error: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(defs))
	}
	if defs[0].Alias() != "reads" || defs[0].Threads() != 8 || defs[0].Stride() != 10 {
		t.Fatalf("unexpected first activity: %+v", defs[0])
	}
	if defs[0].CycleRate() == nil {
		t.Fatalf("expected a parsed cyclerate")
	}
	if defs[1].Alias() != "writes" || !defs[1].IsAsync() {
		t.Fatalf("unexpected second activity: %+v", defs[1])
	}
}

func TestLoadFromRejectsInvalidParam(t *testing.T) {
	path := writeScenarioFile(t, `
activities:
  - alias: bad
    params:
      stride: "not-a-number"
`)

	if _, err := LoadFrom(path); err == nil {
		t.Fatalf("expected an error for an invalid stride value")
	}
}
