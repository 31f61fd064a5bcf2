// Copyright (c) OpenMMLab. All rights reserved.

// Package runtime defines the contract between the distributed launcher and
// the backend that actually owns process spawning and the communication group.
package runtime

import "context"

// Backend identifies the communication technology managing the distributed group.
type Backend string

const (
	BackendNCCL Backend = "native-nccl"
	BackendGloo Backend = "native-gloo"
	BackendMPI  Backend = "native-mpi"
	BackendTPU  Backend = "accelerator-tpu"
)

// AllBackends returns every backend identifier known to this package.
func AllBackends() []Backend {
	return []Backend{BackendNCCL, BackendGloo, BackendMPI, BackendTPU}
}

// EntryFunc is the user entry point executed on each worker. The first
// argument is the worker's local rank within its node.
type EntryFunc func(localRank int, args ...interface{}) error

// Reserved SpawnConfig keys. Backend-specific passthrough options use any
// other key.
const (
	KeyNprocPerNode = "nproc_per_node"
	KeyNnodes       = "nnodes"
	KeyNodeRank     = "node_rank"
	KeyMasterAddr   = "master_addr"
	KeyMasterPort   = "master_port"
)

// SpawnConfig carries the resolved topology plus passthrough options for a
// spawn call. Absent optional fields are omitted, never present as nil values.
type SpawnConfig map[string]interface{}

// NprocPerNode returns the worker count per node, or 0 if unset.
func (c SpawnConfig) NprocPerNode() int {
	n, _ := c[KeyNprocPerNode].(int)
	return n
}

// Nnodes returns the node count, or 0 if unset.
func (c SpawnConfig) Nnodes() int {
	n, _ := c[KeyNnodes].(int)
	return n
}

// NodeRank returns the current node's index, or 0 if unset.
func (c SpawnConfig) NodeRank() int {
	n, _ := c[KeyNodeRank].(int)
	return n
}

// Runtime is the collaborator the launcher delegates to. The communication
// group handle behind InitializeGroup/FinalizeGroup is a process-wide
// singleton owned by the runtime, not by the launcher.
type Runtime interface {
	// AvailableBackends enumerates the backends this runtime can drive.
	AvailableBackends() []Backend

	// Spawn launches cfg's nproc_per_node workers, each of which joins its
	// own communication group, runs fn with its local rank and leaves the
	// group. Spawn blocks until every worker finished or one failed.
	Spawn(ctx context.Context, backend Backend, fn EntryFunc, args []interface{}, cfg SpawnConfig) error

	// InitializeGroup joins the current process to a communication group
	// whose topology an external launcher already fixed.
	InitializeGroup(backend Backend) error

	// FinalizeGroup leaves the group joined by InitializeGroup.
	FinalizeGroup() error

	// WorldSize reports the total worker count across all nodes.
	WorldSize() int

	// LocalRank reports the current worker's index within its node.
	LocalRank() int
}

// HasBackend reports whether b is in the set of available backends.
func HasBackend(available []Backend, b Backend) bool {
	for _, a := range available {
		if a == b {
			return true
		}
	}
	return false
}
