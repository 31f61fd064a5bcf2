// Copyright (c) OpenMMLab. All rights reserved.

package envinfo

import (
	"fmt"

	"dlaunch/logger"
	"dlaunch/pkg/runtime"

	"github.com/spf13/cobra"
)

// EnvInfo is the attach-mode view of the current process's environment.
type EnvInfo struct {
	WorldSize  int    `json:"world_size"`
	Rank       int    `json:"rank"`
	LocalRank  int    `json:"local_rank"`
	MasterAddr string `json:"master_addr,omitempty"`
}

// Create env command (show the distributed environment of this process)
func NewCmdEnv() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Show the distributed environment visible to this process",
		Long: `Show the topology an external launcher exported to this process
(WORLD_SIZE, RANK, LOCAL_RANK, MASTER_ADDR).
Usage:
  dlaunch env

Example:
  torchrun --nproc_per_node=4 ... dlaunch env`,
		Run: func(cmd *cobra.Command, args []string) {
			rt := runtime.NewEnvRuntime()
			info := EnvInfo{
				WorldSize:  rt.WorldSize(),
				Rank:       rt.Rank(),
				LocalRank:  rt.LocalRank(),
				MasterAddr: rt.MasterAddr(),
			}
			fmt.Println(logger.ToPrettyJSON(info))
		},
	}
	return cmd
}
