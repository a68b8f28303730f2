package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"tapedeck/internal/catalog"
	"tapedeck/internal/config"
	"tapedeck/internal/logging"
	"tapedeck/internal/profile"
	"tapedeck/internal/recording"
	"tapedeck/internal/recurrence"
	"tapedeck/internal/transcode"
)

// Daemon owns the recording repository and drives its lifecycle: restoring
// the catalog at startup, promoting due entries to capture, handing finished
// captures to the transcode scheduler, and flushing state back to disk.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	repo      *recording.Repository
	registry  *profile.Registry
	catalog   *catalog.Catalog
	scheduler *transcode.Scheduler
	driver    CardDriver

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	started time.Time
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Options carries the daemon's collaborators.
type Options struct {
	Repository *recording.Repository
	Registry   *profile.Registry
	Catalog    *catalog.Catalog
	Scheduler  *transcode.Scheduler
	Driver     CardDriver
	Logger     *slog.Logger
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, opts Options) (*Daemon, error) {
	if cfg == nil || opts.Repository == nil || opts.Registry == nil || opts.Catalog == nil || opts.Scheduler == nil {
		return nil, errors.New("daemon requires config, repository, registry, catalog, and scheduler")
	}
	driver := opts.Driver
	if driver == nil {
		driver = NewLoggingDriver(opts.Logger)
	}
	lockPath := filepath.Join(cfg.Paths.DataDir, "tapedeckd.lock")
	return &Daemon{
		cfg:       cfg,
		logger:    logging.WithComponent(opts.Logger, "daemon"),
		repo:      opts.Repository,
		registry:  opts.Registry,
		catalog:   opts.Catalog,
		scheduler: opts.Scheduler,
		driver:    driver,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the single-instance lock, restores the catalog, and launches
// the background timers. It fails when another instance holds the lock or
// when the catalog cannot be read at all.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another instance holds %s", d.lockPath)
	}

	needsResave, err := d.catalog.Restore(d.repo)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("restore catalog: %w", err)
	}
	if needsResave {
		if err := d.catalog.Save(d.repo); err != nil {
			_ = d.lock.Unlock()
			return fmt.Errorf("rewrite catalog: %w", err)
		}
	}
	d.logger.Info("catalog restored",
		logging.Int("entries", len(d.repo.ListAll())),
		logging.String("path", d.catalog.Path()))

	d.ctx, d.cancel = context.WithCancel(ctx)
	if d.cfg.Profiles.AutoRefresh {
		if err := d.registry.Watch(d.ctx); err != nil {
			d.logger.Warn("profile auto-refresh unavailable", logging.Error(err))
		}
	}

	d.started = time.Now()
	d.running.Store(true)

	d.wg.Add(1)
	go d.pollLoop()
	d.wg.Add(1)
	go d.autosaveLoop()

	d.logger.Info("daemon started",
		logging.Int("cards", d.repo.CardCount()),
		logging.Int("workers", d.scheduler.Workers()))
	return nil
}

// Stop halts the timers, saves the catalog, drains the transcode scheduler,
// and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.running.Store(false)
	d.cancel()
	d.wg.Wait()

	if err := d.catalog.Save(d.repo); err != nil {
		d.logger.Error("final catalog save failed", logging.Error(err))
	}
	d.scheduler.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release daemon lock failed", logging.Error(err))
	}
	d.logger.Info("daemon stopped")
}

func (d *Daemon) pollLoop() {
	defer d.wg.Done()
	interval := time.Duration(d.cfg.Scheduler.PollInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-d.ctx.Done():
			return
		case now := <-ticker.C:
			d.tick(now)
		}
	}
}

// tick advances the capture lifecycle once: due entries start capturing,
// entries past their end stop and feed the transcode queue.
func (d *Daemon) tick(now time.Time) {
	changed := false

	for _, entry := range d.repo.PromoteDue(now) {
		changed = true
		if err := d.driver.StartCapture(d.ctx, entry); err != nil {
			d.logger.Error("capture start failed",
				logging.EntryID(entry.ID),
				logging.Card(entry.Card),
				logging.Error(err))
		}
	}

	captured, expired := d.repo.ReleaseFinished(now)
	for _, entry := range captured {
		changed = true
		if err := d.driver.StopCapture(d.ctx, entry); err != nil {
			d.logger.Error("capture stop failed",
				logging.EntryID(entry.ID),
				logging.Card(entry.Card),
				logging.Error(err))
		}
		source := filepath.Join(d.cfg.Paths.SpoolDir, entry.Filename)
		if _, err := d.scheduler.Enqueue(source, entry.Profiles); err != nil {
			d.logger.Error("transcode enqueue failed",
				logging.EntryID(entry.ID),
				logging.Filename(entry.Filename),
				logging.Error(err))
		}
	}
	for _, entry := range expired {
		changed = true
		d.logger.Warn("recording window passed without capture",
			logging.EntryID(entry.ID),
			logging.String("title", entry.Title),
			logging.Time("start", entry.Start))
	}

	if changed {
		d.saveCatalog()
	}
}

func (d *Daemon) autosaveLoop() {
	defer d.wg.Done()
	interval := time.Duration(d.cfg.Scheduler.AutosaveInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.saveCatalog()
		}
	}
}

// saveCatalog flushes state to disk. Outside startup a failed save is logged
// and retried on the next trigger rather than taking the daemon down.
func (d *Daemon) saveCatalog() {
	if err := d.catalog.Save(d.repo); err != nil {
		d.logger.Error("catalog save failed", logging.Error(err))
	}
}

// AddRecording validates and inserts one standalone entry, then persists.
func (d *Daemon) AddRecording(entry recording.Entry) (recording.Entry, error) {
	entry.Profiles = d.resolveProfiles(entry.Profiles)
	stored, err := d.repo.Insert(entry)
	if err != nil {
		return recording.Entry{}, err
	}
	d.saveCatalog()
	d.logger.Info("recording added",
		logging.EntryID(stored.ID),
		logging.Card(stored.Card),
		logging.String("title", stored.Title))
	return stored, nil
}

// AddSeries expands a recurrence rule and inserts every occurrence. The
// series is all-or-nothing: if any occurrence finds no free card, the ones
// already inserted are rolled back and the error is returned.
func (d *Daemon) AddSeries(anchor recording.Entry) ([]recording.Entry, error) {
	anchor.Profiles = d.resolveProfiles(anchor.Profiles)
	occurrences, err := recurrence.Expand(anchor)
	if err != nil {
		return nil, err
	}

	inserted := make([]recording.Entry, 0, len(occurrences))
	for _, occ := range occurrences {
		stored, err := d.repo.Insert(occ)
		if err != nil {
			for _, rollback := range inserted {
				if _, delErr := d.repo.Delete(rollback.ID, false); delErr != nil {
					d.logger.Error("series rollback failed",
						logging.EntryID(rollback.ID),
						logging.Error(delErr))
				}
			}
			return nil, fmt.Errorf("occurrence at %s: %w", occ.Start.Format(time.RFC3339), err)
		}
		inserted = append(inserted, stored)
	}

	d.saveCatalog()
	d.logger.Info("series added",
		logging.String("title", anchor.Title),
		logging.Int("occurrences", len(inserted)))
	return inserted, nil
}

// RemoveRecording deletes one entry or, when wholeSeries is set, every
// occurrence sharing its recurrence group.
func (d *Daemon) RemoveRecording(id int64, wholeSeries bool) ([]recording.Entry, error) {
	removed, err := d.repo.Delete(id, wholeSeries)
	if err != nil {
		return nil, err
	}
	d.saveCatalog()
	d.logger.Info("recording removed",
		logging.EntryID(id),
		logging.Bool("series", wholeSeries),
		logging.Int("count", len(removed)))
	return removed, nil
}

// Recordings lists one card's queue, or every queue when card is negative.
func (d *Daemon) Recordings(card int) ([]recording.Entry, error) {
	if card < 0 {
		return d.repo.ListAll(), nil
	}
	return d.repo.List(card)
}

// Profiles returns the loaded profiles in definition order.
func (d *Daemon) Profiles() []*profile.Profile {
	names := d.registry.Names()
	profiles := make([]*profile.Profile, 0, len(names))
	for _, name := range names {
		p, err := d.registry.Get(name)
		if err != nil {
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles
}

// DefaultProfile returns the configured default profile name.
func (d *Daemon) DefaultProfile() string {
	return d.registry.DefaultName()
}

// Jobs snapshots the transcode scheduler.
func (d *Daemon) Jobs() []transcode.Status {
	return d.scheduler.Status()
}

// KillJob terminates the encode occupying the slot.
func (d *Daemon) KillJob(slot int) (bool, error) {
	return d.scheduler.Kill(slot)
}

// Status summarizes daemon runtime state.
type Status struct {
	Running     bool
	PID         int
	Uptime      time.Duration
	CardCount   int
	EntryCount  int
	Workers     int
	Completed   int64
	Failed      int64
	Killed      int64
	CatalogPath string
	LockPath    string
}

// Status reports the daemon's runtime summary.
func (d *Daemon) Status() Status {
	completed, failed, killed := d.scheduler.Counters()
	st := Status{
		Running:     d.running.Load(),
		PID:         os.Getpid(),
		CardCount:   d.repo.CardCount(),
		EntryCount:  len(d.repo.ListAll()),
		Workers:     d.scheduler.Workers(),
		Completed:   completed,
		Failed:      failed,
		Killed:      killed,
		CatalogPath: d.catalog.Path(),
		LockPath:    d.lockPath,
	}
	if st.Running {
		st.Uptime = time.Since(d.started)
	}
	return st
}

// resolveProfiles fills an empty list with the default profile and rewrites
// unknown names to it with a warning, mirroring load-time fallback.
func (d *Daemon) resolveProfiles(names []string) []string {
	if len(names) == 0 {
		return []string{d.registry.DefaultName()}
	}
	resolved := make([]string, 0, len(names))
	for _, name := range names {
		if !d.registry.Exists(name) {
			d.logger.Warn("unknown profile, using default", logging.Profile(name))
			name = d.registry.DefaultName()
		}
		if !slices.Contains(resolved, name) {
			resolved = append(resolved, name)
		}
	}
	return resolved
}
