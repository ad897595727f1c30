// Package config handles loading and validating RZA Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Reading a local .env file
//   - Overriding with RZA_* environment variables
//   - Validation of required fields
//
// The resulting *Config is created once in main and passed to each component
// explicitly. There is no package-level configuration state.
//
// Security Considerations:
//   - Sensitive values (MQTT password, InfluxDB token) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Database.Path)
package config
