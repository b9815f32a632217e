package app

import "sync"

// workQueue runs submitted jobs one at a time on a single background
// goroutine. Model loads and transcriptions share it, so a reload
// naturally waits for an in-flight transcription.
type workQueue struct {
	jobs chan func()
	done chan struct{}
	once sync.Once
}

func newWorkQueue(depth int) *workQueue {
	q := &workQueue{
		jobs: make(chan func(), depth),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *workQueue) run() {
	for {
		select {
		case <-q.done:
			return
		case job := <-q.jobs:
			job()
		}
	}
}

// Submit enqueues a job. Jobs submitted after Shutdown are dropped.
func (q *workQueue) Submit(job func()) {
	select {
	case <-q.done:
	case q.jobs <- job:
	}
}

// Shutdown stops the worker without waiting. A running job finishes on
// its own; queued jobs may be abandoned.
func (q *workQueue) Shutdown() {
	q.once.Do(func() {
		close(q.done)
	})
}
