package hashing

import (
	"context"
	"log/slog"
	"sync"
)

type job struct {
	run  func() error
	done chan error
}

type Worker struct {
	ID         int
	WorkerPool chan chan job
	JobChannel chan job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-ctx.Done():
				w.Logger.Debug("hash worker shutting down", "worker_id", w.ID)
				return
			}

			select {
			case j := <-w.JobChannel:
				j.done <- j.run()
			case <-ctx.Done():
				w.Logger.Debug("hash worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type PoolConfig struct {
	MaxWorkers   int
	JobQueueSize int
}

// Pool runs CPU heavy hashing off the request goroutines. Callers block on
// Do until their job finishes or their context ends.
type Pool struct {
	logger *slog.Logger

	jobQueue   chan job
	workerPool chan chan job
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewPool(config PoolConfig, logger *slog.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 64
	}

	p := &Pool{
		logger:     logger,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan job, jobQueueSize),
		workerPool: make(chan chan job, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}
	p.start()
	return p
}

func (p *Pool) start() {
	p.once.Do(func() {
		for i := 0; i < p.maxWorkers; i++ {
			NewWorker(i, p.workerPool, p.logger).Start(p.ctx, &p.wg)
		}

		p.wg.Add(1)
		go p.dispatch()

		p.logger.Info("hashing worker pool started",
			"max_workers", p.maxWorkers,
			"queue_size", cap(p.jobQueue))
	})
}

func (p *Pool) dispatch() {
	defer p.wg.Done()

	for {
		select {
		case j := <-p.jobQueue:
			select {
			case jobChannel := <-p.workerPool:
				select {
				case jobChannel <- j:
				case <-p.ctx.Done():
					j.done <- ErrPoolClosed
					return
				}
			case <-p.ctx.Done():
				j.done <- ErrPoolClosed
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// Do queues fn and waits for it. When ctx ends first the job may still run
// to completion, but its outcome is discarded.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ctx.Err() != nil {
		return ErrPoolClosed
	}

	j := job{run: fn, done: make(chan error, 1)}

	select {
	case p.jobQueue <- j:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrPoolClosed
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrPoolClosed
	}
}

func (p *Pool) Shutdown() {
	p.logger.Info("shutting down hashing worker pool")
	p.cancel()
	p.wg.Wait()
	p.logger.Info("hashing worker pool shutdown complete")
}
