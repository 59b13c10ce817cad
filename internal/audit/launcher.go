package audit

import (
	"context"
	"log/slog"
	"sync"
)

// Launcher runs audits in the background on a fixed pool of workers, so
// the API can answer "run created" immediately while the run executes.
type Launcher struct {
	runner     *Runner
	workers    int
	jobQueue   chan string
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
	log        *slog.Logger
}

// NewLauncher creates a launcher with the specified number of workers
func NewLauncher(runner *Runner, workers int, log *slog.Logger) *Launcher {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Launcher{
		runner:     runner,
		workers:    workers,
		jobQueue:   make(chan string, workers*2), // Buffered to prevent blocking
		ctx:        ctx,
		cancelFunc: cancel,
		log:        log,
	}
}

// Start starts the worker goroutines
func (l *Launcher) Start() {
	for i := 0; i < l.workers; i++ {
		l.wg.Add(1)
		go l.worker()
	}
}

func (l *Launcher) worker() {
	defer l.wg.Done()

	for {
		select {
		case <-l.ctx.Done():
			return
		case runID := <-l.jobQueue:
			// Errors are already reflected in the run's failed status;
			// the log line is the only other trace a background run leaves.
			if err := l.runner.Run(l.ctx, runID); err != nil {
				l.log.Error("background audit run", "run", runID, "error", err)
			}
		}
	}
}

// Launch queues a run for background execution. It blocks only when the
// queue is full and all workers are busy.
func (l *Launcher) Launch(runID string) {
	select {
	case <-l.ctx.Done():
		return
	case l.jobQueue <- runID:
	}
}

// Shutdown stops accepting runs and waits for in-flight workers to exit.
// The queue is never closed, so a Launch racing a Shutdown falls through
// to the cancelled-context case instead of panicking on a closed channel;
// queued runs stay pending and can be restarted.
func (l *Launcher) Shutdown() {
	l.closeOnce.Do(l.cancelFunc)
	l.wg.Wait()
}
