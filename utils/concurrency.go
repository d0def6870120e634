package utils

import (
	"sync"
	"time"
)

// WorkerPool runs jobs on at most maxWorkers goroutines, optionally spacing
// job starts by a minimum interval.
type WorkerPool struct {
	interval  time.Duration
	semaphore chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	lastStart time.Time
}

// NewWorkerPool creates a WorkerPool. A rateLimitMs of zero disables spacing;
// maxWorkers below one is treated as one.
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		interval:  time.Duration(rateLimitMs) * time.Millisecond,
		semaphore: make(chan struct{}, maxWorkers),
	}
}

// Submit blocks until a worker slot is free, then runs job in its own goroutine.
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		wp.enforceRateLimit()
		job()
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) enforceRateLimit() {
	if wp.interval <= 0 {
		return
	}
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if elapsed := time.Since(wp.lastStart); elapsed < wp.interval {
		time.Sleep(wp.interval - elapsed)
	}
	wp.lastStart = time.Now()
}

// IDSet is a concurrency-safe set of property IDs or listing URLs.
type IDSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewIDSet creates an empty IDSet.
func NewIDSet() *IDSet {
	return &IDSet{seen: make(map[string]struct{})}
}

// Add returns true if id was newly added, false if already present.
func (s *IDSet) Add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[id]; exists {
		return false
	}
	s.seen[id] = struct{}{}
	return true
}

// Contains reports whether id has been added.
func (s *IDSet) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[id]
	return exists
}

// Size returns the number of unique IDs tracked.
func (s *IDSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
