// Package main provides the entry point for pipesweep.
// Pipesweep is a superscalar pipeline width study driver built on an
// external cycle-accurate engine.
//
// For the full CLIs, use: go run ./cmd/pipesweep
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("Pipesweep - Superscalar Pipeline Width Study Driver")
	fmt.Println("Drives an external cycle-accurate engine")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  cmd/pipesweep   Sweep width x branch predictor and compare")
	fmt.Println("  cmd/simrun      Run one configuration and analyze branches")
	fmt.Println("  cmd/pipeview    Render pipeline activity traces")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/pipesweep' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/pipesweep' instead.")
	}
}
