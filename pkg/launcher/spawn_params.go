// Copyright (c) OpenMMLab. All rights reserved.

package launcher

import (
	"fmt"

	"dlaunch/pkg/runtime"
)

// setupSpawnParams validates the spawn topology and resolves it into the
// config map handed to the runtime's spawn call. It is a pure function: no
// side effects beyond the returned error.
//
// Rules:
//   - nprocPerNode must be positive
//   - nnodes defaults to 1 and must be positive
//   - nodeRank defaults to 0 only for single-node runs, is mandatory
//     otherwise, and must lie in [0, nnodes)
//   - masterAddr and masterPort are mandatory for multi-node runs
//
// Absent optional fields are dropped from the result, never passed through
// as nil values. Extras are merged last and may not shadow a reserved key.
func setupSpawnParams(nprocPerNode int, nnodes, nodeRank *int, masterAddr string, masterPort *int, extras map[string]interface{}) (runtime.SpawnConfig, error) {
	if nprocPerNode < 1 {
		return nil, &ConfigError{Field: "nproc_per_node", Value: nprocPerNode, Reason: "should be positive"}
	}

	numNodes := 1
	if nnodes != nil {
		numNodes = *nnodes
	}
	if numNodes < 1 {
		return nil, &ConfigError{Field: "nnodes", Value: numNodes, Reason: "should be positive"}
	}

	rank := 0
	if nodeRank == nil {
		if numNodes > 1 {
			return nil, &ConfigError{Field: "node_rank", Value: nil, Reason: "is required when nnodes is larger than one"}
		}
	} else {
		rank = *nodeRank
	}
	if rank < 0 || rank >= numNodes {
		return nil, &ConfigError{Field: "node_rank", Value: rank, Reason: fmt.Sprintf("should be between 0 and %d", numNodes-1)}
	}

	if numNodes > 1 && (masterAddr == "" || masterPort == nil) {
		return nil, &ConfigError{
			Field:  "master_addr/master_port",
			Value:  fmt.Sprintf("master_addr=%q master_port=%v", masterAddr, masterPort),
			Reason: "should be specified when nnodes is larger than one",
		}
	}

	params := runtime.SpawnConfig{
		runtime.KeyNprocPerNode: nprocPerNode,
		runtime.KeyNnodes:       numNodes,
		runtime.KeyNodeRank:     rank,
	}
	if masterAddr != "" {
		params[runtime.KeyMasterAddr] = masterAddr
	}
	if masterPort != nil {
		params[runtime.KeyMasterPort] = *masterPort
	}
	for k, v := range extras {
		if reservedKeys[k] {
			return nil, &ConfigError{Field: k, Value: v, Reason: "shadows a reserved spawn parameter"}
		}
		params[k] = v
	}
	return params, nil
}

var reservedKeys = map[string]bool{
	runtime.KeyNprocPerNode: true,
	runtime.KeyNnodes:       true,
	runtime.KeyNodeRank:     true,
	runtime.KeyMasterAddr:   true,
	runtime.KeyMasterPort:   true,
}
