// Copyright (c) OpenMMLab. All rights reserved.

package runtime

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestLocalRuntimeSpawn(t *testing.T) {
	rt := NewLocalRuntime()

	var mu sync.Mutex
	seen := map[int]int{}
	gotArgs := map[int][]interface{}{}

	cfg := SpawnConfig{KeyNprocPerNode: 4, KeyNnodes: 1, KeyNodeRank: 0}
	err := rt.Spawn(context.Background(), BackendGloo, func(localRank int, args ...interface{}) error {
		mu.Lock()
		defer mu.Unlock()
		seen[localRank]++
		gotArgs[localRank] = args
		return nil
	}, []interface{}{"config", 7}, cfg)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	if len(seen) != 4 {
		t.Fatalf("distinct ranks = %d, want 4", len(seen))
	}
	for rank := 0; rank < 4; rank++ {
		if seen[rank] != 1 {
			t.Errorf("rank %d ran %d times, want 1", rank, seen[rank])
		}
		if len(gotArgs[rank]) != 2 || gotArgs[rank][0] != "config" || gotArgs[rank][1] != 7 {
			t.Errorf("rank %d args = %v, want [config 7]", rank, gotArgs[rank])
		}
	}
}

func TestLocalRuntimeSpawnPropagatesWorkerError(t *testing.T) {
	rt := NewLocalRuntime()
	workerErr := errors.New("worker failed")

	cfg := SpawnConfig{KeyNprocPerNode: 3, KeyNnodes: 1, KeyNodeRank: 0}
	err := rt.Spawn(context.Background(), BackendGloo, func(localRank int, args ...interface{}) error {
		if localRank == 1 {
			return workerErr
		}
		return nil
	}, nil, cfg)

	if !errors.Is(err, workerErr) {
		t.Errorf("Spawn() error = %v, want %v", err, workerErr)
	}
}

func TestLocalRuntimeSpawnValidation(t *testing.T) {
	tests := []struct {
		name    string
		backend Backend
		cfg     SpawnConfig
	}{
		{
			name:    "unknown backend",
			backend: BackendNCCL,
			cfg:     SpawnConfig{KeyNprocPerNode: 2},
		},
		{
			name:    "missing nproc_per_node",
			backend: BackendGloo,
			cfg:     SpawnConfig{},
		},
		{
			name:    "multi node rejected",
			backend: BackendGloo,
			cfg:     SpawnConfig{KeyNprocPerNode: 2, KeyNnodes: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := NewLocalRuntime()
			err := rt.Spawn(context.Background(), tt.backend, func(localRank int, args ...interface{}) error {
				t.Error("entry point must not run")
				return nil
			}, nil, tt.cfg)
			if err == nil {
				t.Error("Spawn() error = nil, want error")
			}
		})
	}
}

func TestLocalRuntimeGroupLifecycle(t *testing.T) {
	rt := NewLocalRuntime()

	if err := rt.InitializeGroup(BackendGloo); err != nil {
		t.Fatalf("InitializeGroup() error = %v", err)
	}
	if err := rt.InitializeGroup(BackendGloo); err == nil {
		t.Error("second InitializeGroup() error = nil, want error")
	}
	if err := rt.FinalizeGroup(); err != nil {
		t.Fatalf("FinalizeGroup() error = %v", err)
	}
	if err := rt.FinalizeGroup(); err == nil {
		t.Error("second FinalizeGroup() error = nil, want error")
	}

	if got := rt.WorldSize(); got != 1 {
		t.Errorf("WorldSize() = %d, want 1", got)
	}
	if got := rt.LocalRank(); got != 0 {
		t.Errorf("LocalRank() = %d, want 0", got)
	}
}
