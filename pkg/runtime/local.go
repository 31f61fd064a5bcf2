// Copyright (c) OpenMMLab. All rights reserved.

package runtime

import (
	"context"
	"fmt"
	"sync"

	"dlaunch/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LocalRuntime runs workers as goroutines inside the current process. It is
// a single-node runtime meant for tests and local prototyping: each worker
// passes a rendezvous barrier (its group join) before the entry point runs,
// but no collective operations are provided.
type LocalRuntime struct {
	backends []Backend

	mu     sync.Mutex
	joined bool
}

// NewLocalRuntime creates a local runtime driving the given backends,
// defaulting to native-gloo.
func NewLocalRuntime(backends ...Backend) *LocalRuntime {
	if len(backends) == 0 {
		backends = []Backend{BackendGloo}
	}
	return &LocalRuntime{backends: backends}
}

func (r *LocalRuntime) AvailableBackends() []Backend {
	return r.backends
}

// Spawn runs cfg's nproc_per_node workers concurrently and blocks until all
// finished. The first worker error cancels the remaining workers' context
// and is returned.
func (r *LocalRuntime) Spawn(ctx context.Context, backend Backend, fn EntryFunc, args []interface{}, cfg SpawnConfig) error {
	if !HasBackend(r.backends, backend) {
		return fmt.Errorf("unknown backend '%s', available backends: %v", backend, r.backends)
	}
	nproc := cfg.NprocPerNode()
	if nproc < 1 {
		return fmt.Errorf("spawn config has no positive %s, got %v", KeyNprocPerNode, cfg[KeyNprocPerNode])
	}
	if nnodes := cfg.Nnodes(); nnodes > 1 {
		return fmt.Errorf("local runtime is single-node, got %s=%d", KeyNnodes, nnodes)
	}

	logger.Logger.Info("Spawning local workers",
		zap.String("backend", string(backend)),
		zap.Int("nproc_per_node", nproc))

	// All workers must have joined before any entry point runs.
	rendezvous := make(chan struct{})
	var joined sync.WaitGroup
	joined.Add(nproc)
	go func() {
		joined.Wait()
		close(rendezvous)
	}()

	group, ctx := errgroup.WithContext(ctx)
	for rank := 0; rank < nproc; rank++ {
		rank := rank
		group.Go(func() error {
			joined.Done()
			select {
			case <-rendezvous:
			case <-ctx.Done():
				return ctx.Err()
			}
			return fn(rank, args...)
		})
	}
	return group.Wait()
}

// InitializeGroup marks the current process as a single-worker group.
func (r *LocalRuntime) InitializeGroup(backend Backend) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.joined {
		return fmt.Errorf("processing group already initialized")
	}
	if !HasBackend(r.backends, backend) {
		return fmt.Errorf("unknown backend '%s', available backends: %v", backend, r.backends)
	}
	r.joined = true
	return nil
}

func (r *LocalRuntime) FinalizeGroup() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.joined {
		return fmt.Errorf("no active processing group to finalize")
	}
	r.joined = false
	return nil
}

// WorldSize is always 1 in attach mode: the local runtime never joins
// workers beyond the current process.
func (r *LocalRuntime) WorldSize() int { return 1 }

func (r *LocalRuntime) LocalRank() int { return 0 }
