package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp catalog: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeTempCatalog(t, `[
  {"id": "skin-1", "name": "AK-47 | Redline", "wear": 2, "stat": 0},
  {"id": "skin-2", "name": "AWP | Asiimov", "wear": 3, "stat": 1},
  {"name": "Glock-18 | Fade"}
]`)

	items, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Name != "AK-47 | Redline" || items[0].Wear != 2 {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if items[1].Stat != 1 {
		t.Errorf("expected stat flag on second item, got %+v", items[1])
	}
	if items[2].Wear != 0 || items[2].Stat != 0 {
		t.Errorf("expected zero defaults for omitted fields, got %+v", items[2])
	}
}

func TestLoadEmptyArray(t *testing.T) {
	items, err := Load(writeTempCatalog(t, `[]`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty catalog, got %d items", len(items))
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "no-such-catalog.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	_, err := Load(writeTempCatalog(t, `{"name": "not an array"`))
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestLoadWrongShape(t *testing.T) {
	_, err := Load(writeTempCatalog(t, `{"items": []}`))
	if err == nil {
		t.Fatal("expected error for non-array document")
	}
}
