package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"tapedeck/internal/logging"
	"tapedeck/internal/profile"
)

// ErrClosed is returned by Enqueue after the scheduler has shut down.
var ErrClosed = errors.New("transcode scheduler is closed")

var errTerminated = errors.New("terminated by kill request")

// Options configures a Scheduler.
type Options struct {
	// Workers is the fixed number of concurrent encoder subprocesses.
	Workers int
	// Binary is the external encoder invoked for every pass.
	Binary string
	// OutputDir receives the encoded files.
	OutputDir string
	// Executor overrides the os/exec backend, used by tests.
	Executor Executor
	// History, when set, records finished jobs.
	History *History
	Logger  *slog.Logger
}

type runningJob struct {
	job    *Job
	proc   Process
	killed bool
}

// Scheduler runs encoder subprocesses against captured files. Concurrency is
// bounded by a fixed worker pool; queueing is unbounded. Jobs never retry:
// a failed encode stays Failed until an operator looks at it.
type Scheduler struct {
	logger    *slog.Logger
	registry  *profile.Registry
	executor  Executor
	history   *History
	binary    string
	outputDir string

	ctx    context.Context
	cancel context.CancelFunc
	pool   *ants.Pool
	wg     sync.WaitGroup

	mu        sync.Mutex
	cond      *sync.Cond
	queue     []*Job
	slots     []*runningJob
	nextID    int64
	closed    bool
	completed int64
	failed    int64
	killed    int64
}

// NewScheduler builds a scheduler and starts its dispatcher.
func NewScheduler(registry *profile.Registry, opts Options) (*Scheduler, error) {
	if opts.Workers <= 0 {
		return nil, errors.New("worker count must be positive")
	}
	if opts.Binary == "" {
		return nil, errors.New("encoder binary is required")
	}
	executor := opts.Executor
	if executor == nil {
		executor = NewCommandExecutor()
	}

	pool, err := ants.NewPool(opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		logger:    logging.WithComponent(opts.Logger, "transcode"),
		registry:  registry,
		executor:  executor,
		history:   opts.History,
		binary:    opts.Binary,
		outputDir: opts.OutputDir,
		ctx:       ctx,
		cancel:    cancel,
		pool:      pool,
		slots:     make([]*runningJob, opts.Workers),
		nextID:    1,
	}
	s.cond = sync.NewCond(&s.mu)

	s.wg.Add(1)
	go s.dispatch()
	return s, nil
}

// Workers returns the fixed slot count.
func (s *Scheduler) Workers() int {
	return len(s.slots)
}

// Enqueue creates one Queued job per profile name for the captured file.
// Unknown profile names resolve to the default profile with a warning rather
// than failing the whole capture.
func (s *Scheduler) Enqueue(source string, profiles []string) ([]Status, error) {
	if len(profiles) == 0 {
		profiles = []string{s.registry.DefaultName()}
	}
	multi := len(profiles) > 1

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	now := time.Now()
	statuses := make([]Status, 0, len(profiles))
	for _, name := range profiles {
		prof, err := s.registry.Get(name)
		if err != nil {
			s.logger.Warn("unknown profile, using default",
				logging.Profile(name),
				logging.Filename(source))
			name = s.registry.DefaultName()
			prof = s.registry.Default()
		}
		job := &Job{
			ID:      s.nextID,
			Source:  source,
			Output:  filepath.Join(s.outputDir, outputName(source, name, prof, multi)),
			Profile: name,
			Slot:    -1,
			State:   JobQueued,
			Created: now,
		}
		s.nextID++
		s.queue = append(s.queue, job)
		statuses = append(statuses, job.status(now))
		s.logger.Info("job queued",
			logging.Int64("job", job.ID),
			logging.Profile(job.Profile),
			logging.Filename(job.Source))
	}
	s.cond.Signal()
	return statuses, nil
}

// dispatch feeds queued jobs to the pool in FIFO order. Submit blocks while
// every worker is busy, which is what bounds concurrency to the slot count.
func (s *Scheduler) dispatch() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		job := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if err := s.pool.Submit(func() { s.run(job) }); err != nil {
			s.mu.Lock()
			job.State = JobFailed
			job.Err = err.Error()
			s.failed++
			s.mu.Unlock()
			s.logger.Error("job dispatch failed", logging.Int64("job", job.ID), logging.Error(err))
		}
	}
}

func (s *Scheduler) run(job *Job) {
	slot := s.claimSlot(job)
	s.logger.Info("job started",
		logging.Int64("job", job.ID),
		logging.Slot(slot),
		logging.Profile(job.Profile),
		logging.Filename(job.Source))
	s.finish(job, slot, s.encode(job, slot))
}

func (s *Scheduler) claimSlot(job *Job) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.slots {
		if r == nil {
			s.slots[i] = &runningJob{job: job}
			job.Slot = i
			job.State = JobRunning
			job.Started = time.Now()
			return i
		}
	}
	// Pool size equals slot count, so a worker always finds a free slot.
	panic("transcode: no free slot for pool worker")
}

func (s *Scheduler) encode(job *Job, slot int) error {
	prof, err := s.registry.Get(job.Profile)
	if err != nil {
		// The registry may have been refreshed since enqueue.
		prof = s.registry.Default()
	}
	passes := prof.Passes
	if passes < 1 {
		passes = 1
	}

	for pass := 1; pass <= passes; pass++ {
		args := encoderArgs(job.Source, job.Output, prof, pass, passes)
		proc, err := s.executor.Start(s.ctx, s.binary, args)
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.slots[slot].proc = proc
		s.mu.Unlock()

		waitErr := proc.Wait()

		s.mu.Lock()
		killed := s.slots[slot].killed
		s.slots[slot].proc = nil
		s.mu.Unlock()

		if killed {
			return errTerminated
		}
		if waitErr != nil {
			return fmt.Errorf("pass %d/%d: %w", pass, passes, waitErr)
		}
	}
	return nil
}

func (s *Scheduler) finish(job *Job, slot int, err error) {
	s.mu.Lock()
	job.Finished = time.Now()
	switch {
	case errors.Is(err, errTerminated):
		job.State = JobKilled
		s.killed++
	case err != nil:
		job.State = JobFailed
		job.Err = err.Error()
		s.failed++
	default:
		job.State = JobCompleted
		s.completed++
	}
	s.slots[slot] = nil
	snapshot := *job
	s.mu.Unlock()

	switch snapshot.State {
	case JobCompleted:
		s.logger.Info("job completed",
			logging.Int64("job", snapshot.ID),
			logging.Slot(slot),
			logging.Duration("elapsed", snapshot.Finished.Sub(snapshot.Started)))
	case JobKilled:
		s.logger.Info("job killed",
			logging.Int64("job", snapshot.ID),
			logging.Slot(slot))
	default:
		s.logger.Error("job failed",
			logging.Int64("job", snapshot.ID),
			logging.Slot(slot),
			logging.String("error", snapshot.Err))
	}

	if s.history != nil {
		if err := s.history.Record(context.Background(), snapshot); err != nil {
			s.logger.Warn("history record failed", logging.Error(err))
		}
	}
}

// Kill terminates the subprocess occupying the slot, if any. The job is
// marked Killed once its process exits. Killing an idle slot is a reported
// no-op; the returned flag says whether a job was actually signaled.
func (s *Scheduler) Kill(slot int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot < 0 || slot >= len(s.slots) {
		return false, fmt.Errorf("slot %d out of range", slot)
	}
	r := s.slots[slot]
	if r == nil || r.proc == nil {
		s.logger.Info("kill requested for idle slot", logging.Slot(slot))
		return false, nil
	}
	r.killed = true
	if err := r.proc.Terminate(); err != nil {
		return false, fmt.Errorf("terminate slot %d: %w", slot, err)
	}
	s.logger.Info("kill signal sent", logging.Slot(slot), logging.Int64("job", r.job.ID))
	return true, nil
}

// Status snapshots every running and queued job, running first.
func (s *Scheduler) Status() []Status {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Status, 0, len(s.slots)+len(s.queue))
	for _, r := range s.slots {
		if r != nil {
			out = append(out, r.job.status(now))
		}
	}
	for _, job := range s.queue {
		out = append(out, job.status(now))
	}
	return out
}

// Counters returns the terminal-state totals since startup.
func (s *Scheduler) Counters() (completed, failed, killed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed, s.failed, s.killed
}

// Close stops the dispatcher, terminates running encodes, and waits for the
// workers to wind down. Jobs still queued are abandoned; running jobs finish
// as Killed.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for _, r := range s.slots {
		if r != nil {
			r.killed = true
		}
	}
	s.cond.Broadcast()
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	if err := s.pool.ReleaseTimeout(30 * time.Second); err != nil {
		s.logger.Warn("worker pool did not drain in time", logging.Error(err))
	}
}
