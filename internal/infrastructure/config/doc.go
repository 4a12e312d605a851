// Package config handles loading and validating formbd tooling configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Configuration is consumed by cmd/formbd only. The formbd library itself
// reads nothing from disk and nothing from the environment beyond
// FORMBD_LIBRARY during shared library discovery.
//
// Performance Characteristics:
//   - Configuration is loaded once at startup
//   - No runtime overhead after initial load
//
// Usage:
//
//	cfg, err := config.Load("configs/formbd.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.CLI.Database)
package config
