package notionpub

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
}

func TestSaveAndGetSnapshot(t *testing.T) {
	s := setupTestStore(t)
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	if err := s.SaveSnapshot("tree:abc", []byte(`{"a":1}`), at); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	got, err := s.GetSnapshot("tree:abc")
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if string(got.Payload) != `{"a":1}` {
		t.Errorf("Payload = %s", got.Payload)
	}
	if !got.FetchedAt.Equal(at) {
		t.Errorf("FetchedAt = %v, want %v", got.FetchedAt, at)
	}
}

func TestSaveSnapshotReplaces(t *testing.T) {
	s := setupTestStore(t)
	now := time.Now()

	s.SaveSnapshot("k", []byte("old"), now)
	s.SaveSnapshot("k", []byte("new"), now.Add(time.Minute))

	got, err := s.GetSnapshot("k")
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if string(got.Payload) != "new" {
		t.Errorf("Payload = %q, want %q", got.Payload, "new")
	}
}

func TestGetSnapshotNotFound(t *testing.T) {
	s := setupTestStore(t)
	if _, err := s.GetSnapshot("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteSnapshot(t *testing.T) {
	s := setupTestStore(t)
	s.SaveSnapshot("k", []byte("v"), time.Now())

	if err := s.DeleteSnapshot("k"); err != nil {
		t.Fatalf("DeleteSnapshot failed: %v", err)
	}
	if _, err := s.GetSnapshot("k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("snapshot should be gone, err = %v", err)
	}
}

func TestImages(t *testing.T) {
	s := setupTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	images := []Image{
		{Key: "a-1200", Filename: "a-1200.jpg", ContentType: "image/jpeg", Width: 1200, Height: 800, Size: 1000, FetchedAt: base},
		{Key: "b-600", Filename: "b-600.png", ContentType: "image/png", Width: 600, Height: 600, Size: 500, FetchedAt: base.Add(time.Hour)},
	}
	for _, img := range images {
		if err := s.SaveImage(img); err != nil {
			t.Fatalf("SaveImage(%s) failed: %v", img.Key, err)
		}
	}

	got, err := s.GetImage("b-600")
	if err != nil {
		t.Fatalf("GetImage failed: %v", err)
	}
	if got.Filename != "b-600.png" || got.Width != 600 || got.ContentType != "image/png" {
		t.Errorf("GetImage = %+v", got)
	}
	if _, err := s.GetImage("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetImage(missing) err = %v, want ErrNotFound", err)
	}

	list, err := s.ListImages()
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}
	if len(list) != 2 || list[0].Key != "b-600" {
		t.Errorf("ListImages should be newest first, got %+v", list)
	}

	removed, err := s.DeleteImages()
	if err != nil {
		t.Fatalf("DeleteImages failed: %v", err)
	}
	if len(removed) != 2 {
		t.Errorf("DeleteImages removed %d, want 2", len(removed))
	}
	if list, _ := s.ListImages(); len(list) != 0 {
		t.Errorf("expected no images after delete, got %d", len(list))
	}
}
