package common

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"testing"
)

func TestRecordWritesConfig(t *testing.T) {
	flags := DefaultFlags()
	flags.SavePath = t.TempDir()
	if err := flags.Record(); err != nil {
		t.Fatalf("unexpected record error: %v", err)
	}

	bs, err := os.ReadFile(path.Join(flags.SavePath, "config.json"))
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	out := &Flags{}
	if err := json.Unmarshal(bs, out); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	if out.Episodes != flags.Episodes || out.ScenePath != flags.ScenePath {
		t.Errorf("recorded config does not match: %+v", out)
	}
}

func TestRecordReportsUnwritablePath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}
	flags := DefaultFlags()
	flags.SavePath = filepath.Join(blocker, "results")
	if err := flags.Record(); err == nil {
		t.Errorf("expected error for unwritable save path")
	}
}
