package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// DefaultFetchWorkers bounds concurrent source fetches across all syncs.
const DefaultFetchWorkers = 2

// FetchPool bounds how many blocking source fetches run at once. Syncs for
// different users share one pool; only the fetch step takes a slot.
type FetchPool struct {
	sem     *semaphore.Weighted
	workers int
}

// NewFetchPool creates a pool of n slots. n < 1 uses DefaultFetchWorkers.
func NewFetchPool(n int) *FetchPool {
	if n < 1 {
		n = DefaultFetchWorkers
	}
	return &FetchPool{sem: semaphore.NewWeighted(int64(n)), workers: n}
}

// Workers returns the pool size.
func (p *FetchPool) Workers() int { return p.workers }

// Fetch waits for a free slot, then runs f.Fetch in the calling goroutine.
func (p *FetchPool) Fetch(ctx context.Context, f Fetcher, creds Credentials) (RawBatch, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for fetch slot: %w", err)
	}
	defer p.sem.Release(1)
	return f.Fetch(ctx, creds)
}
