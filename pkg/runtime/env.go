// Copyright (c) OpenMMLab. All rights reserved.

package runtime

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"

	"dlaunch/logger"

	"go.uber.org/zap"
)

// Environment variables set by external launchers (torchrun and compatible
// tools) for every worker process.
const (
	EnvWorldSize  = "WORLD_SIZE"
	EnvRank       = "RANK"
	EnvLocalRank  = "LOCAL_RANK"
	EnvMasterAddr = "MASTER_ADDR"
	EnvMasterPort = "MASTER_PORT"
)

// EnvRuntime is the attach-mode runtime: the current process was started by
// an external launcher and the topology is read from its environment.
// EnvRuntime never spawns workers itself.
type EnvRuntime struct {
	backends []Backend

	mu      sync.Mutex
	joined  bool
	backend Backend
}

// NewEnvRuntime creates a runtime driving the given backends, or all known
// backends if none are given.
func NewEnvRuntime(backends ...Backend) *EnvRuntime {
	if len(backends) == 0 {
		backends = AllBackends()
	}
	return &EnvRuntime{backends: backends}
}

func (r *EnvRuntime) AvailableBackends() []Backend {
	return r.backends
}

// Spawn always fails: worker processes are launched externally in attach mode.
func (r *EnvRuntime) Spawn(ctx context.Context, backend Backend, fn EntryFunc, args []interface{}, cfg SpawnConfig) error {
	return fmt.Errorf("env runtime cannot spawn workers for backend '%s': processes must be launched externally", backend)
}

// InitializeGroup joins the current process to the group described by the
// environment. Calling it twice without FinalizeGroup is an error.
func (r *EnvRuntime) InitializeGroup(backend Backend) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.joined {
		return fmt.Errorf("processing group already initialized with backend '%s'", r.backend)
	}
	if !HasBackend(r.backends, backend) {
		return fmt.Errorf("unknown backend '%s', available backends: %v", backend, r.backends)
	}

	worldSize, err := intFromEnv(EnvWorldSize, 1)
	if err != nil {
		return err
	}
	if worldSize > 1 {
		for _, name := range []string{EnvRank, EnvLocalRank, EnvMasterAddr, EnvMasterPort} {
			if os.Getenv(name) == "" {
				return fmt.Errorf("environment variable %s is required to join a group of %d workers", name, worldSize)
			}
		}
	}

	r.joined = true
	r.backend = backend
	logger.Logger.Info("Joined processing group from environment",
		zap.String("backend", string(backend)),
		zap.Int("world_size", worldSize),
		zap.Int("local_rank", r.LocalRank()))
	return nil
}

// FinalizeGroup leaves the group joined by InitializeGroup.
func (r *EnvRuntime) FinalizeGroup() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.joined {
		return fmt.Errorf("no active processing group to finalize")
	}
	r.joined = false
	r.backend = ""
	return nil
}

func (r *EnvRuntime) WorldSize() int {
	n, err := intFromEnv(EnvWorldSize, 1)
	if err != nil {
		return 1
	}
	return n
}

func (r *EnvRuntime) LocalRank() int {
	n, err := intFromEnv(EnvLocalRank, 0)
	if err != nil {
		return 0
	}
	return n
}

// Rank reports the worker's global rank across all nodes.
func (r *EnvRuntime) Rank() int {
	n, err := intFromEnv(EnvRank, 0)
	if err != nil {
		return 0
	}
	return n
}

// MasterAddr reports the rendezvous address set by the external launcher.
func (r *EnvRuntime) MasterAddr() string {
	return os.Getenv(EnvMasterAddr)
}

func intFromEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s is not an integer: %q", name, raw)
	}
	return n, nil
}
