// cmd/tools/worker-generator/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"loan-origination/pkg/registry"
)

func main() {
	activity := flag.String("activity", "", "Activity ID from registry (e.g., fraud-score)")
	outputDir := flag.String("output", "internal/workers/loan", "Directory that receives the worker package")
	registryPath := flag.String("registry", "configs/activity-registry.json", "Path to the activity registry JSON file")
	force := flag.Bool("force", false, "Overwrite files that already exist")
	flag.Parse()

	if *activity == "" {
		fmt.Println("Usage: worker-generator -activity <id> [-output <dir>] [-registry <path>] [-force]")
		fmt.Println("\nExample:")
		fmt.Println("  go run ./cmd/tools/worker-generator -activity fraud-score")
		os.Exit(1)
	}

	if err := run(*registryPath, *activity, *outputDir, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(registryPath, activityID, outputDir string, force bool) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("load registry %s: %w", registryPath, err)
	}

	activity, ok := reg.Find(activityID)
	if !ok {
		return fmt.Errorf("activity %q not found in registry", activityID)
	}
	if activity.TaskType == "" {
		return fmt.Errorf("activity %q has no task type", activityID)
	}

	data, err := NewWorkerData(activity)
	if err != nil {
		return err
	}

	written, err := Write(data, outputDir, force)
	if err != nil {
		return err
	}
	if len(written) == 0 {
		fmt.Printf("%s already scaffolded, nothing written (use -force to overwrite)\n", activityID)
		return nil
	}
	for _, path := range written {
		fmt.Printf("wrote %s\n", path)
	}
	fmt.Printf("Remember to register %s in cmd/loan-manager/workers.go and add a %q entry under workers in configs/config.yaml.\n",
		data.TaskType, data.ID)
	return nil
}
