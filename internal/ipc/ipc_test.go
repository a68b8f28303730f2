package ipc

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"tapedeck/internal/catalog"
	"tapedeck/internal/daemon"
	"tapedeck/internal/logging"
	"tapedeck/internal/profile"
	"tapedeck/internal/recording"
	"tapedeck/internal/testsupport"
	"tapedeck/internal/transcode"
)

type idleProcess struct{}

func (idleProcess) Wait() error      { return nil }
func (idleProcess) Terminate() error { return nil }

type idleExecutor struct{}

func (idleExecutor) Start(context.Context, string, []string) (transcode.Process, error) {
	return idleProcess{}, nil
}

type testEnv struct {
	client   *Client
	daemon   *daemon.Daemon
	stopped  chan struct{}
	stopOnce sync.Once
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	dir := cfg.Paths.DataDir

	registry, err := profile.NewRegistry(filepath.Join(dir, "profiles.toml"), "standard", logging.NewNop())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	repo, err := recording.NewRepository(2, 16)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	cat := catalog.New(filepath.Join(dir, "recordings.xml"), registry, logging.NewNop())
	scheduler, err := transcode.NewScheduler(registry, transcode.Options{
		Workers:   1,
		Binary:    "encoder",
		OutputDir: cfg.Paths.OutputDir,
		Executor:  idleExecutor{},
		Logger:    logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	d, err := daemon.New(cfg, daemon.Options{
		Repository: repo,
		Registry:   registry,
		Catalog:    cat,
		Scheduler:  scheduler,
		Logger:     logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	env := &testEnv{daemon: d, stopped: make(chan struct{})}
	shutdown := func() {
		env.stopOnce.Do(func() { close(env.stopped) })
	}

	socket := filepath.Join(dir, "tapedeckd.sock")
	server, err := NewServer(context.Background(), socket, d, shutdown, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(func() {
		server.Close()
		d.Stop()
	})

	client, err := Dial(socket)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	env.client = client
	return env
}

func TestAddListRemoveOverIPC(t *testing.T) {
	env := newTestEnv(t)
	start := time.Date(2030, time.June, 3, 20, 0, 0, 0, time.Local)

	added, err := env.client.Add(AddRequest{
		Title:    "news",
		Channel:  "7",
		Start:    start,
		End:      start.Add(time.Hour),
		Filename: "news.raw",
		Profiles: []string{"standard"},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added.Recording.ID == 0 {
		t.Fatal("added recording has no id")
	}

	list, err := env.client.List(-1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list.Recordings) != 1 || list.Recordings[0].Title != "news" {
		t.Fatalf("List = %+v, want the added recording", list.Recordings)
	}

	removed, err := env.client.Remove(added.Recording.ID, false)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(removed.Removed) != 1 {
		t.Fatalf("Remove removed %d entries, want 1", len(removed.Removed))
	}

	list, err = env.client.List(-1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list.Recordings) != 0 {
		t.Errorf("expected empty list after remove, got %d", len(list.Recordings))
	}
}

func TestAddSeriesOverIPC(t *testing.T) {
	env := newTestEnv(t)
	start := time.Date(2030, time.June, 2, 8, 0, 0, 0, time.Local)

	resp, err := env.client.AddSeries(AddSeriesRequest{
		AddRequest: AddRequest{
			Title:    "morning show",
			Channel:  "3",
			Start:    start,
			End:      start.Add(30 * time.Minute),
			Filename: "morning.raw",
			Profiles: []string{"standard"},
		},
		Rule: SeriesRule{Type: "weekly", Count: 3, StartNumber: 1, Mangling: "numbered"},
	})
	if err != nil {
		t.Fatalf("AddSeries: %v", err)
	}
	if len(resp.Occurrences) != 3 {
		t.Fatalf("expected 3 occurrences, got %d", len(resp.Occurrences))
	}
	for _, occ := range resp.Occurrences {
		if !occ.Recurring || occ.RecurrenceID == "" {
			t.Errorf("occurrence %q missing recurrence metadata", occ.Title)
		}
	}

	if _, err := env.client.AddSeries(AddSeriesRequest{
		AddRequest: AddRequest{Title: "bad", Channel: "3", Start: start, End: start.Add(time.Minute), Filename: "bad.raw"},
		Rule:       SeriesRule{Type: "fortnightly", Count: 2, Mangling: "numbered"},
	}); err == nil || !strings.Contains(err.Error(), "unknown recurrence type") {
		t.Errorf("expected unknown recurrence type error, got %v", err)
	}
}

func TestStatusProfilesAndKillOverIPC(t *testing.T) {
	env := newTestEnv(t)

	status, err := env.client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.Cards != 2 || status.Workers != 1 {
		t.Errorf("Status = %+v, want running with 2 cards and 1 worker", status)
	}

	profiles, err := env.client.Profiles()
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}
	if len(profiles.Profiles) != 1 || !profiles.Profiles[0].Default {
		t.Errorf("Profiles = %+v, want the built-in default", profiles.Profiles)
	}

	kill, err := env.client.Kill(0)
	if err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if kill.Signaled {
		t.Error("idle slot should not report a signaled job")
	}
}

func TestStopTriggersShutdownCallback(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.client.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !resp.Stopped {
		t.Error("Stop should acknowledge")
	}
	select {
	case <-env.stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown callback was not invoked")
	}
}
