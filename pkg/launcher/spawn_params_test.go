// Copyright (c) OpenMMLab. All rights reserved.

package launcher

import (
	"errors"
	"reflect"
	"testing"

	"dlaunch/pkg/runtime"
)

func intp(v int) *int { return &v }

func TestSetupSpawnParams(t *testing.T) {
	type args struct {
		nprocPerNode int
		nnodes       *int
		nodeRank     *int
		masterAddr   string
		masterPort   *int
		extras       map[string]interface{}
	}
	tests := []struct {
		name      string
		args      args
		want      runtime.SpawnConfig
		wantErr   bool
		wantField string
	}{
		{
			name: "single node defaults",
			args: args{nprocPerNode: 4},
			want: runtime.SpawnConfig{
				"nproc_per_node": 4,
				"nnodes":         1,
				"node_rank":      0,
			},
		},
		{
			name: "multi node fully specified",
			args: args{
				nprocPerNode: 8,
				nnodes:       intp(2),
				nodeRank:     intp(1),
				masterAddr:   "master",
				masterPort:   intp(3344),
			},
			want: runtime.SpawnConfig{
				"nproc_per_node": 8,
				"nnodes":         2,
				"node_rank":      1,
				"master_addr":    "master",
				"master_port":    3344,
			},
		},
		{
			name: "extras forwarded verbatim",
			args: args{
				nprocPerNode: 2,
				extras:       map[string]interface{}{"daemon": false, "join": true},
			},
			want: runtime.SpawnConfig{
				"nproc_per_node": 2,
				"nnodes":         1,
				"node_rank":      0,
				"daemon":         false,
				"join":           true,
			},
		},
		{
			name:      "nproc_per_node zero",
			args:      args{nprocPerNode: 0},
			wantErr:   true,
			wantField: "nproc_per_node",
		},
		{
			name:      "nproc_per_node negative",
			args:      args{nprocPerNode: -3},
			wantErr:   true,
			wantField: "nproc_per_node",
		},
		{
			name:      "nnodes zero",
			args:      args{nprocPerNode: 4, nnodes: intp(0)},
			wantErr:   true,
			wantField: "nnodes",
		},
		{
			name:      "node_rank missing with multiple nodes",
			args:      args{nprocPerNode: 4, nnodes: intp(2), masterAddr: "master", masterPort: intp(3344)},
			wantErr:   true,
			wantField: "node_rank",
		},
		{
			name:      "node_rank negative",
			args:      args{nprocPerNode: 4, nnodes: intp(2), nodeRank: intp(-1), masterAddr: "master", masterPort: intp(3344)},
			wantErr:   true,
			wantField: "node_rank",
		},
		{
			name:      "node_rank out of range",
			args:      args{nprocPerNode: 4, nnodes: intp(2), nodeRank: intp(2), masterAddr: "master", masterPort: intp(3344)},
			wantErr:   true,
			wantField: "node_rank",
		},
		{
			name:      "master_addr missing with multiple nodes",
			args:      args{nprocPerNode: 4, nnodes: intp(2), nodeRank: intp(0), masterPort: intp(3344)},
			wantErr:   true,
			wantField: "master_addr/master_port",
		},
		{
			name:      "master_port missing with multiple nodes",
			args:      args{nprocPerNode: 4, nnodes: intp(2), nodeRank: intp(0), masterAddr: "master"},
			wantErr:   true,
			wantField: "master_addr/master_port",
		},
		{
			name: "extra shadows reserved key",
			args: args{
				nprocPerNode: 4,
				extras:       map[string]interface{}{"nnodes": 16},
			},
			wantErr:   true,
			wantField: "nnodes",
		},
		{
			name: "explicit node_rank zero on single node",
			args: args{nprocPerNode: 1, nodeRank: intp(0)},
			want: runtime.SpawnConfig{
				"nproc_per_node": 1,
				"nnodes":         1,
				"node_rank":      0,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := setupSpawnParams(tt.args.nprocPerNode, tt.args.nnodes, tt.args.nodeRank, tt.args.masterAddr, tt.args.masterPort, tt.args.extras)
			if (err != nil) != tt.wantErr {
				t.Errorf("setupSpawnParams() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				var ce *ConfigError
				if !errors.As(err, &ce) {
					t.Errorf("setupSpawnParams() error type = %T, want *ConfigError", err)
					return
				}
				if ce.Field != tt.wantField {
					t.Errorf("setupSpawnParams() error field = %v, want %v", ce.Field, tt.wantField)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("setupSpawnParams() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Resolved parameters fed back through validation must re-validate to the
// same configuration.
func TestSetupSpawnParamsRoundTrip(t *testing.T) {
	first, err := setupSpawnParams(8, intp(2), intp(1), "master", intp(3344), map[string]interface{}{"daemon": true})
	if err != nil {
		t.Fatalf("setupSpawnParams() error = %v", err)
	}

	nnodes := first.Nnodes()
	nodeRank := first.NodeRank()
	port := first["master_port"].(int)
	second, err := setupSpawnParams(first.NprocPerNode(), &nnodes, &nodeRank, first["master_addr"].(string), &port, map[string]interface{}{"daemon": true})
	if err != nil {
		t.Fatalf("setupSpawnParams() round trip error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("round trip mismatch: first = %v, second = %v", first, second)
	}
}
