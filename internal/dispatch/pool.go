package dispatch

import (
	"errors"
	"sync"

	"github.com/memementor/embedding-service/internal/security"
)

// ErrPoolSaturated is returned by Submit when the queue is full. Callers
// translate it to a 503 so clients can back off and retry.
var ErrPoolSaturated = errors.New("embedding worker pool saturated")

// Pool runs CPU-bound encode calls on a fixed set of worker goroutines with a
// bounded queue. Encode calls must never run on the request-handling goroutine
// pool unbounded: each inference can block for seconds and an unbounded spawn
// would let a burst of large batches exhaust the process.
type Pool struct {
	jobs chan func()
	wg   sync.WaitGroup
}

// NewPool creates a pool with the given worker count and queue capacity.
// Values below 1 are clamped to 1.
func NewPool(workers, queue int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queue < 1 {
		queue = 1
	}
	p := &Pool{jobs: make(chan func(), queue)}
	for range workers {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		job()
		security.SetPoolQueueDepth(len(p.jobs))
	}
}

// Submit enqueues a job, failing fast with ErrPoolSaturated when the queue is
// full. The job always runs to completion once accepted.
func (p *Pool) Submit(job func()) error {
	select {
	case p.jobs <- job:
		security.SetPoolQueueDepth(len(p.jobs))
		return nil
	default:
		return ErrPoolSaturated
	}
}

// Close stops accepting jobs and waits for in-flight work to finish.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
