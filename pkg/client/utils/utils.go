// Copyright (c) OpenMMLab. All rights reserved.

// Package utils provides helpers for reading node topology files
package utils

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadHostfile reads participating node addresses from a file.
// The file should contain one address per line; empty lines and lines
// starting with '#' are skipped.
//
// Parameters:
//   - filePath: The path to the hostfile.
//
// Returns:
//   - []string: A slice of node addresses.
//   - error: An error if reading from file fails.
func ReadHostfile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("unable to open hostfile: %w", err)
	}
	defer file.Close()

	var hosts []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		hosts = append(hosts, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading hostfile: %w", err)
	}

	if len(hosts) == 0 {
		return nil, fmt.Errorf("hostfile is empty or malformed")
	}

	return hosts, nil
}
