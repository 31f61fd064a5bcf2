// Copyright (c) OpenMMLab. All rights reserved.

// Package launcher wraps a distributed runtime behind a small lifecycle: it
// validates the training topology at construction time, then either spawns
// the worker processes itself (spawn mode) or joins a processing group an
// external launcher already set up (attach mode).
package launcher

import (
	"context"
	"sync"
	"time"

	"dlaunch/logger"
	"dlaunch/pkg/prom/metrics"
	"dlaunch/pkg/runtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options are the construction-time topology parameters. Pointer fields
// distinguish "not given" from an explicit zero: node_rank 0 is a valid
// value while nproc_per_node 0 is not a valid one.
type Options struct {
	// Backend selects the communication technology. Empty means no
	// distributed context at all.
	Backend string

	// NprocPerNode, when set, selects spawn mode: Run launches this many
	// worker processes per node.
	NprocPerNode *int

	// Nnodes is the participating node count, defaulting to 1.
	Nnodes *int

	// NodeRank is the current node's index. Mandatory when Nnodes > 1.
	NodeRank *int

	// MasterAddr and MasterPort locate the rendezvous endpoint for
	// multi-node runs. Mandatory together when Nnodes > 1.
	MasterAddr string
	MasterPort *int

	// SpawnExtras are backend-specific options forwarded verbatim to the
	// runtime's spawn call. Keys may not shadow the resolved topology.
	SpawnExtras map[string]interface{}
}

// Launcher coordinates one run of a distributed entry point. The zero value
// is not usable; construct with New.
type Launcher struct {
	rt          runtime.Runtime
	backend     runtime.Backend
	hasBackend  bool
	spawnParams runtime.SpawnConfig // nil in attach mode
	runID       string
	log         *zap.Logger

	mu          sync.Mutex
	groupActive bool
}

// New validates opts against rt and builds a launcher. No network or
// process-group action happens here; every invalid configuration fails
// synchronously with a *ConfigError.
func New(rt runtime.Runtime, opts Options) (*Launcher, error) {
	if opts.Backend == "" {
		for _, p := range []struct {
			name  string
			value interface{}
			given bool
		}{
			{"nproc_per_node", opts.NprocPerNode, opts.NprocPerNode != nil},
			{"nnodes", opts.Nnodes, opts.Nnodes != nil},
			{"node_rank", opts.NodeRank, opts.NodeRank != nil},
			{"master_addr", opts.MasterAddr, opts.MasterAddr != ""},
			{"master_port", opts.MasterPort, opts.MasterPort != nil},
		} {
			if p.given {
				return nil, &ConfigError{Field: p.name, Value: deref(p.value), Reason: "should be unset when backend is unset"}
			}
		}
	} else if !runtime.HasBackend(rt.AvailableBackends(), runtime.Backend(opts.Backend)) {
		return nil, &ConfigError{
			Field:  "backend",
			Value:  opts.Backend,
			Reason: "is unknown, available backends: " + backendList(rt.AvailableBackends()),
		}
	}

	l := &Launcher{
		rt:         rt,
		backend:    runtime.Backend(opts.Backend),
		hasBackend: opts.Backend != "",
		runID:      uuid.New().String()[:8],
	}
	l.log = logger.Logger.With(zap.String("run_id", l.runID))

	if l.hasBackend && opts.NprocPerNode != nil {
		params, err := setupSpawnParams(*opts.NprocPerNode, opts.Nnodes, opts.NodeRank, opts.MasterAddr, opts.MasterPort, opts.SpawnExtras)
		if err != nil {
			return nil, err
		}
		l.spawnParams = params
	}

	if l.hasBackend {
		l.log.Info("Initialized distributed launcher", zap.String("backend", opts.Backend))
	}
	if l.spawnParams != nil {
		l.log.Info("Parameters to spawn processes", zap.Any("spawn_params", l.spawnParams))
	}
	return l, nil
}

// SpawnMode reports whether Run will spawn worker processes itself.
func (l *Launcher) SpawnMode() bool {
	return l.spawnParams != nil
}

// SpawnParams returns a copy of the resolved spawn configuration, or nil in
// attach mode.
func (l *Launcher) SpawnParams() runtime.SpawnConfig {
	if l.spawnParams == nil {
		return nil
	}
	cp := make(runtime.SpawnConfig, len(l.spawnParams))
	for k, v := range l.spawnParams {
		cp[k] = v
	}
	return cp
}

// Run executes fn in the distributed context and blocks until it finished.
// In spawn mode the runtime launches nproc_per_node workers, each running
// fn with its local rank; otherwise fn runs once in the current process.
// Errors from fn or the runtime propagate unchanged.
//
// The "End of run" log line is written only on a normal return; an error
// skips it. Group finalization is not handled here, see ExitScope.
func (l *Launcher) Run(ctx context.Context, fn runtime.EntryFunc, args ...interface{}) (err error) {
	start := time.Now()
	mode := "attach"
	if l.spawnParams != nil {
		mode = "spawn"
	}
	defer func() { metrics.ObserveRun(mode, time.Since(start), err) }()

	if l.spawnParams != nil {
		l.log.Info("Spawning entry point",
			zap.Int("nproc_per_node", l.spawnParams.NprocPerNode()))
		if err = l.rt.Spawn(ctx, l.backend, fn, args, l.spawnParams); err != nil {
			return err
		}
	} else {
		l.log.Info("Running entry point",
			zap.Int("world_size", l.rt.WorldSize()))
		if err = fn(l.rt.LocalRank(), args...); err != nil {
			return err
		}
	}

	l.log.Info("End of run")
	return nil
}

// EnterScope joins the processing group when that is the launcher's job:
// backend present and spawn mode not selected. In spawn mode the workers
// manage their own groups and the parent must not join one, so EnterScope
// is a no-op; likewise without a backend. Calling EnterScope on an already
// active launcher returns ErrGroupActive.
func (l *Launcher) EnterScope() error {
	if !l.hasBackend || l.spawnParams != nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.groupActive {
		return ErrGroupActive
	}
	if err := l.rt.InitializeGroup(l.backend); err != nil {
		return err
	}
	l.groupActive = true
	l.log.Info("Initialized processing group", zap.String("backend", string(l.backend)))
	return nil
}

// ExitScope mirrors EnterScope: it finalizes the group under exactly the
// condition that made EnterScope join one. Without an active group it is a
// no-op, so paired enter/exit is always safe.
func (l *Launcher) ExitScope() error {
	if !l.hasBackend || l.spawnParams != nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.groupActive {
		return nil
	}
	l.log.Info("Finalized processing group", zap.String("backend", string(l.backend)))
	l.groupActive = false
	return l.rt.FinalizeGroup()
}

// RunInScope runs fn inside an enter/exit pair. The group is finalized on
// every exit path, including an entry-point error; a finalize error is
// surfaced only when fn itself succeeded.
func (l *Launcher) RunInScope(ctx context.Context, fn runtime.EntryFunc, args ...interface{}) (err error) {
	if err = l.EnterScope(); err != nil {
		return err
	}
	defer func() {
		if ferr := l.ExitScope(); ferr != nil && err == nil {
			err = ferr
		}
	}()
	return l.Run(ctx, fn, args...)
}

func deref(v interface{}) interface{} {
	switch p := v.(type) {
	case *int:
		if p == nil {
			return nil
		}
		return *p
	default:
		return v
	}
}

func backendList(backends []runtime.Backend) string {
	s := ""
	for i, b := range backends {
		if i > 0 {
			s += ", "
		}
		s += string(b)
	}
	return s
}
