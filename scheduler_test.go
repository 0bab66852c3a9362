package notionpub

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eringen/notionpub/notion"
)

func TestWarmLoadsStaticPaths(t *testing.T) {
	a := newTestApp(t, nil)

	n, err := a.Warm(context.Background())
	if err != nil {
		t.Fatalf("Warm: %v", err)
	}
	if n != 1 {
		t.Errorf("Warm loaded %d pages, want 1", n)
	}

	keys := map[string]bool{}
	for _, e := range a.Cache.Entries() {
		keys[e.Key] = true
	}
	for _, want := range []string{
		"database:" + notion.CompactID(testBaseID),
		"query:" + notion.CompactID(testBaseID),
		"object:" + notion.CompactID(testPageID),
		"tree:" + notion.CompactID(testPageID),
	} {
		if !keys[want] {
			t.Errorf("Warm did not cache %s", want)
		}
	}

	// A warmed page renders without further requests.
	before := a.fake.count("GET /blocks/children")
	a.get(t, "/hello-world/")
	if got := a.fake.count("GET /blocks/children"); got != before {
		t.Errorf("page render fetched blocks again")
	}
}

func TestStartWarmer(t *testing.T) {
	a := newTestApp(t, nil)

	stop, err := a.StartWarmer("")
	if err != nil {
		t.Fatalf("empty schedule: %v", err)
	}
	stop()

	if _, err := a.StartWarmer("every now and then"); err == nil {
		t.Error("expected an invalid schedule error")
	}

	stop, err = a.StartWarmer("@every 1h")
	if err != nil {
		t.Fatalf("StartWarmer: %v", err)
	}
	stop()
}

func TestWatchSiteFileReloadsNav(t *testing.T) {
	a := newTestApp(t, nil)
	path := filepath.Join(t.TempDir(), "site.yaml")
	if err := os.WriteFile(path, []byte("headerNav: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := a.WatchSiteFile(path)
	if err != nil {
		t.Fatalf("WatchSiteFile: %v", err)
	}
	defer w.Close()

	data := "headerNav:\n  - name: Notes\n    slug: Notes\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if nav := a.Site().HeaderNav; len(nav) == 1 && nav[0].Name == "Notes" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("HeaderNav = %+v, want the reloaded Notes item", a.Site().HeaderNav)
}

func TestWatchSiteFileEmptyPath(t *testing.T) {
	a := newTestApp(t, nil)
	w, err := a.WatchSiteFile("")
	if err != nil || w != nil {
		t.Errorf("WatchSiteFile(\"\") = %v, %v", w, err)
	}
}
