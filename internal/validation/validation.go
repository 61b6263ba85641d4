// Package validation checks file arguments before a run touches them.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsValidPath checks if a given path exists and is a file or a directory.
func IsValidPath(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}
	if !info.IsDir() && !info.Mode().IsRegular() {
		return fmt.Errorf("path %s is neither a file nor a directory", path)
	}
	return nil
}

// IsInputFile checks that path names an existing regular file.
func IsInputFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("input path cannot be empty")
	}
	if err := IsValidPath(path); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("input %s is a directory", path)
	}
	return nil
}

// IsOutputFile checks that path can be created or overwritten: its parent
// directory exists and the path itself is not a directory.
func IsOutputFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("output path cannot be empty")
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("output %s is a directory", path)
	}
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("output directory does not exist: %s", dir)
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output parent %s is not a directory", dir)
	}
	return nil
}

// IsDistinctOutput rejects an output path that resolves to the input file.
func IsDistinctOutput(input, output string) error {
	in, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("error resolving %s: %w", input, err)
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("error resolving %s: %w", output, err)
	}
	if in == out {
		return fmt.Errorf("output %s would overwrite the input file", output)
	}
	return nil
}
