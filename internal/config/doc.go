// Package config loads, defaults, and validates docent's TOML configuration.
//
// Configuration sections by subsystem:
//   - Paths: data, assets, and log directories plus the IPC socket
//   - Capture: camera device, facing, mirroring, and crop aspect
//   - Runtime: session idle timeout and reclaim cadence
//   - Logging: log format and level
package config
