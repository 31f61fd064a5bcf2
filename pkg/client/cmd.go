// Copyright (c) OpenMMLab. All rights reserved.

package client

import (
	"fmt"

	"dlaunch/pkg/client/envinfo"
	"dlaunch/pkg/client/validate"
	"dlaunch/pkg/client/version"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// readConfig reads parameters from the configuration file
func readConfig(configPath string) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		fmt.Println("Note: User did not specify configuration file path, defaulting to dlaunch.yaml in this directory")
		viper.SetConfigName("dlaunch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	err := viper.ReadInConfig()
	if err != nil {
		fmt.Printf("Error reading configuration file: Using default values or user-specified values\n")
	}
}

func NewDlaunchCommand() *cobra.Command {
	// Read configuration file
	var configPath string

	// Create root command
	cmds := &cobra.Command{
		Use:   "dlaunch",
		Short: "Command line tool",
		Long: `This is a distributed training topology validation tool.
Usage:
  dlaunch [subcommand] [parameters]

Example:
  dlaunch validate --backend native-gloo --nproc-per-node 4`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			readConfig(configPath)
		},
	}

	// Disable auto-completion command
	cmds.CompletionOptions.DisableDefaultCmd = true

	// Add global flags
	cmds.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Specify the path to the configuration file")
	cmds.PersistentFlags().StringP("backend", "b", "", "Specify the communication backend: native-nccl, native-gloo, native-mpi or accelerator-tpu")

	// Add subcommands directly to the root command
	cmds.AddCommand(
		validate.NewCmdValidate(),
		envinfo.NewCmdEnv(),
		version.NewCmdVersion(),
	)

	return cmds
}
