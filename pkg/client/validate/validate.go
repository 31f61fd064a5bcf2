// Copyright (c) OpenMMLab. All rights reserved.

package validate

import (
	"fmt"
	"os"

	"dlaunch/logger"
	"dlaunch/pkg/client/utils"
	"dlaunch/pkg/launcher"
	"dlaunch/pkg/runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Create validate command (topology validation without any distributed action)
func NewCmdValidate() *cobra.Command {
	var nprocPerNode int
	var nnodes int
	var nodeRank int
	var masterAddr string
	var masterPort int
	var hostfile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a distributed training topology",
		Long: `Validate the given topology parameters and print the resolved spawn
configuration. No process is spawned and no group is initialized.
Usage:
  dlaunch validate --backend <backend> --nproc-per-node <n> [--nnodes <n>] [--node-rank <r>] [--master-addr <addr>] [--master-port <port>] [--hostfile <path>]

Examples:
  dlaunch validate --backend native-gloo --nproc-per-node 4
  dlaunch validate --backend native-nccl --nproc-per-node 8 --nnodes 2 --node-rank 0 --master-addr master --master-port 3344`,
		Run: func(cmd *cobra.Command, args []string) {
			backend, _ := cmd.Flags().GetString("backend")
			if backend == "" {
				backend = viper.GetString("backend")
			}
			if backend != "" {
				fmt.Printf("Using backend: %s\n", backend)
			} else {
				fmt.Println("Note: No backend specified, validating a non-distributed configuration")
			}

			if nprocPerNode == 0 {
				nprocPerNode = viper.GetInt("nproc-per-node")
			}
			if nnodes == 0 {
				nnodes = viper.GetInt("nnodes")
			}
			if masterAddr == "" {
				masterAddr = viper.GetString("master-addr")
			}
			if masterPort == 0 {
				masterPort = viper.GetInt("master-port")
			}

			opts := launcher.Options{
				Backend:    backend,
				MasterAddr: masterAddr,
			}
			if nprocPerNode != 0 {
				opts.NprocPerNode = &nprocPerNode
			}
			if nnodes != 0 {
				opts.Nnodes = &nnodes
			}
			if cmd.Flags().Changed("node-rank") {
				opts.NodeRank = &nodeRank
			} else if viper.IsSet("node-rank") {
				rank := viper.GetInt("node-rank")
				opts.NodeRank = &rank
			}
			if masterPort != 0 {
				opts.MasterPort = &masterPort
			}

			// Cross-check the hostfile against the node count
			if hostfile == "" {
				hostfile = viper.GetString("hostfile")
			}
			if hostfile != "" {
				hosts, err := utils.ReadHostfile(hostfile)
				if err != nil {
					fmt.Printf("Failed to read hostfile: %v\n", err)
					os.Exit(1)
				}
				fmt.Printf("Obtained hosts: %v\n", hosts)
				wantNodes := nnodes
				if wantNodes == 0 {
					wantNodes = 1
				}
				if len(hosts) != wantNodes {
					fmt.Printf("Error: hostfile lists %d hosts but nnodes is %d\n", len(hosts), wantNodes)
					os.Exit(1)
				}
			}

			l, err := launcher.New(runtime.NewEnvRuntime(), opts)
			if err != nil {
				fmt.Printf("Configuration invalid: %v\n", err)
				os.Exit(1)
			}

			if l.SpawnMode() {
				fmt.Println("Configuration valid (spawn mode). Resolved spawn parameters:")
				fmt.Println(logger.ToPrettyJSON(l.SpawnParams()))
			} else if backend != "" {
				fmt.Println("Configuration valid (attach mode). Topology is supplied by the external launcher.")
			} else {
				fmt.Println("Configuration valid. No distributed context.")
			}
		},
	}

	cmd.Flags().IntVar(&nprocPerNode, "nproc-per-node", 0, "Number of worker processes per node")
	cmd.Flags().IntVar(&nnodes, "nnodes", 0, "Number of participating nodes")
	cmd.Flags().IntVar(&nodeRank, "node-rank", 0, "Index of the current node, required when nnodes > 1")
	cmd.Flags().StringVar(&masterAddr, "master-addr", "", "Rendezvous address, required when nnodes > 1")
	cmd.Flags().IntVar(&masterPort, "master-port", 0, "Rendezvous port, required when nnodes > 1")
	cmd.Flags().StringVar(&hostfile, "hostfile", "", "Path to a file listing one node address per line")

	return cmd
}
