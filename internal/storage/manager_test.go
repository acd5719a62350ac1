// manager_test.go - Tests for storage layer
package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/beaconbay/backend/internal/models"
)

func createTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates upload directory", func(t *testing.T) {
		uploadDir := filepath.Join(t.TempDir(), "uploads")

		if _, err := NewLocalStore(uploadDir); err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		if _, err := os.Stat(uploadDir); os.IsNotExist(err) {
			t.Error("Expected upload directory to be created")
		}
	})

	t.Run("reloads index", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewLocalStore(dir)
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}
		info, err := store.Save("scan.json", models.FileKindLog, "application/json", strings.NewReader("{}"))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		reopened, err := NewLocalStore(dir)
		if err != nil {
			t.Fatalf("Failed to reopen store: %v", err)
		}
		got, err := reopened.Get(info.ID)
		if err != nil {
			t.Fatalf("Expected file to survive reopen: %v", err)
		}
		if got.Kind != models.FileKindLog {
			t.Errorf("Expected kind log, got %v", got.Kind)
		}
	})

	t.Run("drops index entries without content", func(t *testing.T) {
		dir := t.TempDir()
		store, _ := NewLocalStore(dir)
		info, _ := store.Save("scan.json", models.FileKindLog, "", strings.NewReader("{}"))
		os.Remove(filepath.Join(dir, info.ID))

		reopened, err := NewLocalStore(dir)
		if err != nil {
			t.Fatalf("Failed to reopen store: %v", err)
		}
		if _, err := reopened.Get(info.ID); err == nil {
			t.Error("Expected missing content to drop the entry")
		}
	})
}

func TestLocalStore_Save(t *testing.T) {
	t.Run("saves file from reader", func(t *testing.T) {
		store := createTestStore(t)

		content := `{"devices": []}`
		info, err := store.Save("scan.json", models.FileKindLog, "application/json", strings.NewReader(content))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		if info.ID == "" {
			t.Error("Expected ID to be set")
		}
		if info.Name != "scan.json" {
			t.Errorf("Expected name 'scan.json', got %v", info.Name)
		}
		if info.Size != int64(len(content)) {
			t.Errorf("Expected size %d, got %d", len(content), info.Size)
		}

		data, err := store.Read(info.ID)
		if err != nil {
			t.Fatalf("Failed to read saved file: %v", err)
		}
		if string(data) != content {
			t.Errorf("Expected content '%s', got '%s'", content, string(data))
		}
	})

	t.Run("strips directories from names", func(t *testing.T) {
		store := createTestStore(t)

		info, err := store.Save("../../etc/plan.png", models.FileKindFloorPlan, "image/png", strings.NewReader("png"))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}
		if info.Name != "plan.png" {
			t.Errorf("Expected name 'plan.png', got %v", info.Name)
		}
	})
}

func TestLocalStore_Get(t *testing.T) {
	store := createTestStore(t)

	_, err := store.Get("non-existent-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	_, err = store.Read("non-existent-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound from Read, got %v", err)
	}
}

func TestLocalStore_List(t *testing.T) {
	t.Run("filters by kind and sorts newest first", func(t *testing.T) {
		store := createTestStore(t)

		var logs []string
		for i := 0; i < 3; i++ {
			info, err := store.Save("scan.json", models.FileKindLog, "", strings.NewReader("{}"))
			if err != nil {
				t.Fatalf("Failed to save file: %v", err)
			}
			logs = append(logs, info.ID)
			time.Sleep(10 * time.Millisecond)
		}
		if _, err := store.Save("plan.png", models.FileKindFloorPlan, "image/png", strings.NewReader("x")); err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		files, err := store.List(models.FileKindLog, 10)
		if err != nil {
			t.Fatalf("Failed to list files: %v", err)
		}
		if len(files) != 3 {
			t.Fatalf("Expected 3 logs, got %d", len(files))
		}
		if files[0].ID != logs[2] {
			t.Error("Expected files to be sorted by time descending")
		}

		all, _ := store.List("", 0)
		if len(all) != 4 {
			t.Errorf("Expected 4 files, got %d", len(all))
		}
	})

	t.Run("limits results", func(t *testing.T) {
		store := createTestStore(t)
		for i := 0; i < 5; i++ {
			store.Save("scan.json", models.FileKindLog, "", strings.NewReader("{}"))
		}

		files, _ := store.List(models.FileKindLog, 2)
		if len(files) != 2 {
			t.Errorf("Expected 2 files, got %d", len(files))
		}
	})
}

func TestLocalStore_Delete(t *testing.T) {
	t.Run("deletes existing file", func(t *testing.T) {
		store := createTestStore(t)

		info, err := store.Save("scan.json", models.FileKindLog, "", strings.NewReader("{}"))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}
		filePath, _ := store.GetFilePath(info.ID)

		if err := store.Delete(info.ID); err != nil {
			t.Fatalf("Failed to delete file: %v", err)
		}

		if _, err := store.Get(info.ID); err == nil {
			t.Error("Expected error when getting deleted file")
		}
		if _, err := os.Stat(filePath); !os.IsNotExist(err) {
			t.Error("Physical file should be deleted")
		}
	})

	t.Run("returns error for non-existent file", func(t *testing.T) {
		store := createTestStore(t)

		if err := store.Delete("non-existent-id"); err == nil {
			t.Error("Expected error when deleting non-existent file")
		}
	})
}

func TestLocalStore_GetFilePath(t *testing.T) {
	store := createTestStore(t)

	info, err := store.Save("scan.json", models.FileKindLog, "", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}

	path, err := store.GetFilePath(info.ID)
	if err != nil {
		t.Fatalf("Failed to get file path: %v", err)
	}

	expectedPath := filepath.Join(store.uploadDir, info.ID)
	if path != expectedPath {
		t.Errorf("Expected path %s, got %s", expectedPath, path)
	}
}
