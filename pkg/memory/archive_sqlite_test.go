package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ensembleai/ensemble/pkg/core"
)

func TestArchiveSaveAndLoadRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	archive, err := OpenSQLiteArchive(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer archive.Close()

	history := []core.Message{
		stamped("write a poem", "user", core.TagUserRequest, 1),
		stamped("roses are red", "writer", "Draft", 2),
		stamped("looks good", "reviewer", "Review", 3, "writer"),
	}

	if err := archive.SaveRun(context.Background(), "run-1", history); err != nil {
		t.Fatalf("save run: %v", err)
	}

	loaded, err := archive.LoadRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("load run: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(loaded))
	}
	for i := range history {
		if loaded[i].ID != history[i].ID {
			t.Errorf("message %d: id mismatch %s vs %s", i, loaded[i].ID, history[i].ID)
		}
		if loaded[i].Timestamp != history[i].Timestamp {
			t.Errorf("message %d: ts mismatch", i)
		}
	}
	if len(loaded[2].SentTo) != 1 || loaded[2].SentTo[0] != "writer" {
		t.Errorf("sent_to not round-tripped: %v", loaded[2].SentTo)
	}
}

func TestArchiveLoadMissingRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	archive, err := OpenSQLiteArchive(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer archive.Close()

	loaded, err := archive.LoadRun(context.Background(), "nope")
	if err != nil {
		t.Fatalf("load run: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected empty history, got %d", len(loaded))
	}
}
