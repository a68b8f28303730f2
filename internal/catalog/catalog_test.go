package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tapedeck/internal/logging"
	"tapedeck/internal/profile"
	"tapedeck/internal/recording"
	"tapedeck/internal/recurrence"
)

func newTestRegistry(t *testing.T) *profile.Registry {
	t.Helper()
	registry, err := profile.NewRegistry(filepath.Join(t.TempDir(), "profiles.toml"), "standard", logging.NewNop())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return registry
}

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recordings.xml")
	return New(path, newTestRegistry(t), logging.NewNop())
}

func newTestRepository(t *testing.T) *recording.Repository {
	t.Helper()
	repo, err := recording.NewRepository(2, 16)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	return repo
}

func testEntry(title string, start time.Time) recording.Entry {
	return recording.Entry{
		Title:    title,
		Channel:  "7",
		Start:    start,
		End:      start.Add(time.Hour),
		Filename: title + ".avi",
		Profiles: []string{"standard"},
	}
}

func TestRestoreMissingFileCreatesEmptyCatalog(t *testing.T) {
	cat := newTestCatalog(t)
	repo := newTestRepository(t)

	needsResave, err := cat.Restore(repo)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if needsResave {
		t.Error("fresh catalog should not need a resave")
	}
	if got := len(repo.ListAll()); got != 0 {
		t.Errorf("expected empty repository, got %d entries", got)
	}
	if _, err := os.Stat(cat.Path()); err != nil {
		t.Errorf("expected catalog file to be created: %v", err)
	}
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	cat := newTestCatalog(t)
	repo := newTestRepository(t)

	base := time.Date(2024, time.January, 1, 8, 0, 0, 0, time.Local)
	if _, err := repo.Insert(testEntry("news", base)); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	anchor := testEntry("show", base.Add(2*time.Hour))
	anchor.IsRecurring = true
	anchor.Recurrence = recording.RecurrenceWeekly
	anchor.Count = 3
	anchor.StartNumber = 1
	anchor.Mangling = recording.ManglingNumbered
	occurrences, err := recurrence.Expand(anchor)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	for _, occ := range occurrences {
		if _, err := repo.Insert(occ); err != nil {
			t.Fatalf("Insert occurrence: %v", err)
		}
	}

	if err := cat.Save(repo); err != nil {
		t.Fatalf("Save: %v", err)
	}

	restored := newTestRepository(t)
	needsResave, err := cat.Restore(restored)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if needsResave {
		t.Error("current-schema catalog should not need a resave")
	}

	entries := restored.ListAll()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries after restore, got %d", len(entries))
	}
	byTitle := make(map[string]recording.Entry, len(entries))
	for _, e := range entries {
		byTitle[e.Title] = e
	}
	if _, ok := byTitle["news"]; !ok {
		t.Error("standalone entry missing after restore")
	}
	for i, title := range []string{"show 1", "show 2", "show 3"} {
		occ, ok := byTitle[title]
		if !ok {
			t.Fatalf("occurrence %q missing after restore", title)
		}
		wantStart := base.Add(2 * time.Hour).AddDate(0, 0, 7*i)
		if !occ.Start.Equal(wantStart) {
			t.Errorf("occurrence %q start = %v, want %v", title, occ.Start, wantStart)
		}
		if occ.StartNumber != i+1 {
			t.Errorf("occurrence %q start number = %d, want %d", title, occ.StartNumber, i+1)
		}
	}
}

func TestSaveCollapsesSeriesToRemainingOccurrences(t *testing.T) {
	cat := newTestCatalog(t)
	repo := newTestRepository(t)

	base := time.Date(2024, time.March, 4, 20, 0, 0, 0, time.Local)
	anchor := testEntry("serial", base)
	anchor.IsRecurring = true
	anchor.Recurrence = recording.RecurrenceDaily
	anchor.Count = 3
	anchor.StartNumber = 1
	anchor.Mangling = recording.ManglingNumbered
	occurrences, err := recurrence.Expand(anchor)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	var firstID int64
	for i, occ := range occurrences {
		stored, err := repo.Insert(occ)
		if err != nil {
			t.Fatalf("Insert occurrence: %v", err)
		}
		if i == 0 {
			firstID = stored.ID
		}
	}
	if _, err := repo.Delete(firstID, false); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if err := cat.Save(repo); err != nil {
		t.Fatalf("Save: %v", err)
	}

	restored := newTestRepository(t)
	if _, err := cat.Restore(restored); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	entries := restored.ListAll()
	if len(entries) != 2 {
		t.Fatalf("expected 2 remaining occurrences, got %d", len(entries))
	}
	for _, e := range entries {
		if e.StartNumber < 2 {
			t.Errorf("deleted occurrence came back: start number %d", e.StartNumber)
		}
	}
}

func TestRestoreSkipsCorruptRecords(t *testing.T) {
	cat := newTestCatalog(t)
	repo := newTestRepository(t)

	payload := `<?xml version="1.0" encoding="UTF-8"?>
<recordings version="2">
  <recording channel="7">
    <title>good</title>
    <start date="2024-01-01" time="08:00:00"/>
    <end date="2024-01-01" time="09:00:00"/>
    <filename>good.avi</filename>
    <profile>standard</profile>
  </recording>
  <recording channel="7">
    <title>bad date</title>
    <start date="not-a-date" time="08:00:00"/>
    <end date="2024-01-01" time="09:00:00"/>
    <filename>bad.avi</filename>
    <profile>standard</profile>
  </recording>
  <recording channel="7">
    <title>bad rule</title>
    <start date="2024-01-02" time="08:00:00"/>
    <end date="2024-01-02" time="09:00:00"/>
    <filename>rule.avi</filename>
    <profile>standard</profile>
    <rule type="fortnightly" count="2" mangling="numbered" first="1"/>
  </recording>
</recordings>
`
	if err := os.WriteFile(cat.Path(), []byte(payload), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := cat.Restore(repo); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	entries := repo.ListAll()
	if len(entries) != 1 {
		t.Fatalf("expected 1 surviving entry, got %d", len(entries))
	}
	if entries[0].Title != "good" {
		t.Errorf("surviving entry = %q, want %q", entries[0].Title, "good")
	}
}

func TestRestoreRewritesUnknownProfiles(t *testing.T) {
	cat := newTestCatalog(t)
	repo := newTestRepository(t)

	payload := `<?xml version="1.0" encoding="UTF-8"?>
<recordings version="2">
  <recording channel="7">
    <title>orphan</title>
    <start date="2024-01-01" time="08:00:00"/>
    <end date="2024-01-01" time="09:00:00"/>
    <filename>orphan.avi</filename>
    <profile>deleted-profile</profile>
  </recording>
  <recording channel="7">
    <title>bare</title>
    <start date="2024-01-02" time="08:00:00"/>
    <end date="2024-01-02" time="09:00:00"/>
    <filename>bare.avi</filename>
  </recording>
</recordings>
`
	if err := os.WriteFile(cat.Path(), []byte(payload), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := cat.Restore(repo); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	for _, e := range repo.ListAll() {
		if len(e.Profiles) != 1 || e.Profiles[0] != "standard" {
			t.Errorf("entry %q profiles = %v, want [standard]", e.Title, e.Profiles)
		}
	}
}

func TestRestoreOlderSchemaRequestsResave(t *testing.T) {
	cat := newTestCatalog(t)
	repo := newTestRepository(t)

	// Schema v1 rules carried no first attribute.
	payload := `<?xml version="1.0" encoding="UTF-8"?>
<recordings version="1">
  <recording channel="7">
    <title>legacy</title>
    <start date="2024-01-01" time="08:00:00"/>
    <end date="2024-01-01" time="09:00:00"/>
    <filename>legacy.avi</filename>
    <profile>standard</profile>
    <rule type="daily" count="2" mangling="numbered"/>
  </recording>
</recordings>
`
	if err := os.WriteFile(cat.Path(), []byte(payload), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	needsResave, err := cat.Restore(repo)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !needsResave {
		t.Error("older schema should request a resave")
	}
	entries := repo.ListAll()
	if len(entries) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(entries))
	}
	for i, e := range entries {
		if e.StartNumber != i+1 {
			t.Errorf("occurrence %d start number = %d, want %d", i, e.StartNumber, i+1)
		}
	}
}

func TestRestoreRefusesFutureSchema(t *testing.T) {
	cat := newTestCatalog(t)
	repo := newTestRepository(t)

	payload := `<?xml version="1.0" encoding="UTF-8"?>
<recordings version="99"></recordings>
`
	if err := os.WriteFile(cat.Path(), []byte(payload), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := cat.Restore(repo); !errors.Is(err, ErrFutureSchema) {
		t.Fatalf("Restore error = %v, want ErrFutureSchema", err)
	}
}
