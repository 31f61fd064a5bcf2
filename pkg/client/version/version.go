// Copyright (c) OpenMMLab. All rights reserved.

package version

import (
	"fmt"

	v "dlaunch/pkg/version"

	"github.com/spf13/cobra"
)

func NewCmdVersion() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Get launcher version information",
		Long: `Get launcher version information.
Usage:
  dlaunch version`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(v.GetVersionInfo())
		},
	}
	return cmd
}
