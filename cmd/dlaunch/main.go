// Copyright (c) OpenMMLab. All rights reserved.

package main

import (
	"fmt"
	"os"

	"dlaunch/pkg/client"
)

func main() {
	dlaunch := client.NewDlaunchCommand()

	if err := dlaunch.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
