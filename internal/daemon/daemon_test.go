package daemon

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"tapedeck/internal/catalog"
	"tapedeck/internal/logging"
	"tapedeck/internal/profile"
	"tapedeck/internal/recording"
	"tapedeck/internal/testsupport"
	"tapedeck/internal/transcode"
)

type fakeDriver struct {
	mu      sync.Mutex
	started []int64
	stopped []int64
}

func (f *fakeDriver) StartCapture(_ context.Context, entry recording.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, entry.ID)
	return nil
}

func (f *fakeDriver) StopCapture(_ context.Context, entry recording.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, entry.ID)
	return nil
}

func (f *fakeDriver) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.started), len(f.stopped)
}

type fakeProcess struct{}

func (fakeProcess) Wait() error      { return nil }
func (fakeProcess) Terminate() error { return nil }

type fakeExecutor struct {
	mu     sync.Mutex
	starts int
}

func (f *fakeExecutor) Start(context.Context, string, []string) (transcode.Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return fakeProcess{}, nil
}

func (f *fakeExecutor) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

type testHarness struct {
	daemon   *Daemon
	repo     *recording.Repository
	catalog  *catalog.Catalog
	driver   *fakeDriver
	executor *fakeExecutor
}

func newTestHarness(t *testing.T, cardCount int) *testHarness {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithCardCount(cardCount))
	dir := cfg.Paths.DataDir

	registry, err := profile.NewRegistry(filepath.Join(dir, "profiles.toml"), "standard", logging.NewNop())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	repo, err := recording.NewRepository(cardCount, 16)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	cat := catalog.New(filepath.Join(dir, "recordings.xml"), registry, logging.NewNop())

	executor := &fakeExecutor{}
	scheduler, err := transcode.NewScheduler(registry, transcode.Options{
		Workers:   2,
		Binary:    "encoder",
		OutputDir: cfg.Paths.OutputDir,
		Executor:  executor,
		Logger:    logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	driver := &fakeDriver{}
	d, err := New(cfg, Options{
		Repository: repo,
		Registry:   registry,
		Catalog:    cat,
		Scheduler:  scheduler,
		Driver:     driver,
		Logger:     logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)

	return &testHarness{daemon: d, repo: repo, catalog: cat, driver: driver, executor: executor}
}

func testEntry(title string, start time.Time) recording.Entry {
	return recording.Entry{
		Title:    title,
		Channel:  "7",
		Start:    start,
		End:      start.Add(time.Hour),
		Filename: title + ".raw",
		Profiles: []string{"standard"},
	}
}

func TestTickDrivesCaptureLifecycle(t *testing.T) {
	h := newTestHarness(t, 2)
	now := time.Now()

	stored, err := h.daemon.AddRecording(testEntry("news", now.Add(-time.Minute)))
	if err != nil {
		t.Fatalf("AddRecording: %v", err)
	}

	h.daemon.tick(now)
	if started, _ := h.driver.counts(); started != 1 {
		t.Fatalf("expected 1 capture start, got %d", started)
	}
	got, err := h.repo.Get(stored.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != recording.StateCapturing {
		t.Errorf("state = %q, want capturing", got.State)
	}

	h.daemon.tick(now.Add(2 * time.Hour))
	if _, stopped := h.driver.counts(); stopped != 1 {
		t.Fatalf("expected 1 capture stop, got %d", stopped)
	}
	if _, err := h.repo.Get(stored.ID); !errors.Is(err, recording.ErrNotFound) {
		t.Errorf("finished entry should leave the repository, got %v", err)
	}
	testsupport.WaitUntil(t, func() bool { return h.executor.startCount() == 1 })
}

func TestExpiredEntryIsNotTranscoded(t *testing.T) {
	h := newTestHarness(t, 2)
	now := time.Now()

	if _, err := h.daemon.AddRecording(testEntry("missed", now.Add(-time.Minute))); err != nil {
		t.Fatalf("AddRecording: %v", err)
	}

	// Never promoted: the whole window passes in one step.
	h.daemon.tick(now.Add(2 * time.Hour))
	if started, stopped := h.driver.counts(); started != 0 || stopped != 0 {
		t.Errorf("expired entry touched the driver: %d starts, %d stops", started, stopped)
	}
	time.Sleep(50 * time.Millisecond)
	if got := h.executor.startCount(); got != 0 {
		t.Errorf("expired entry reached the encoder %d times", got)
	}
}

func TestAddSeriesRollsBackOnConflict(t *testing.T) {
	h := newTestHarness(t, 1)
	base := time.Date(2030, time.June, 3, 20, 0, 0, 0, time.Local)

	// Occupies the card during the second occurrence's window.
	blocker, err := h.daemon.AddRecording(testEntry("blocker", base.AddDate(0, 0, 1)))
	if err != nil {
		t.Fatalf("AddRecording: %v", err)
	}

	anchor := testEntry("serial", base)
	anchor.IsRecurring = true
	anchor.Recurrence = recording.RecurrenceDaily
	anchor.Count = 3
	anchor.StartNumber = 1
	anchor.Mangling = recording.ManglingNumbered
	if _, err := h.daemon.AddSeries(anchor); !errors.Is(err, recording.ErrNoFreeCard) {
		t.Fatalf("AddSeries error = %v, want ErrNoFreeCard", err)
	}

	entries := h.repo.ListAll()
	if len(entries) != 1 || entries[0].ID != blocker.ID {
		t.Errorf("rollback left repository with %d entries, want only the blocker", len(entries))
	}
}

func TestAddRecordingPersistsImmediately(t *testing.T) {
	h := newTestHarness(t, 2)
	start := time.Date(2030, time.June, 3, 20, 0, 0, 0, time.Local)

	if _, err := h.daemon.AddRecording(testEntry("durable", start)); err != nil {
		t.Fatalf("AddRecording: %v", err)
	}

	restored, err := recording.NewRepository(2, 16)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	if _, err := h.catalog.Restore(restored); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	entries := restored.ListAll()
	if len(entries) != 1 || entries[0].Title != "durable" {
		t.Fatalf("catalog restore got %d entries, want the added recording", len(entries))
	}
}

func TestAddRecordingRewritesUnknownProfile(t *testing.T) {
	h := newTestHarness(t, 2)
	entry := testEntry("fallback", time.Date(2030, time.June, 3, 20, 0, 0, 0, time.Local))
	entry.Profiles = []string{"deleted-profile"}

	stored, err := h.daemon.AddRecording(entry)
	if err != nil {
		t.Fatalf("AddRecording: %v", err)
	}
	if len(stored.Profiles) != 1 || stored.Profiles[0] != "standard" {
		t.Errorf("profiles = %v, want [standard]", stored.Profiles)
	}
}
