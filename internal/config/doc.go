// Package config loads sleuth's TOML configuration.
//
// # File Location
//
// The default path is ~/.config/sleuth/config.toml. A missing file is not an
// error; Load returns Default() instead. Parse errors, bad durations and
// unknown strategies are reported so a typo never silently changes
// behaviour.
//
// # Keys
//
//	api_url = "http://127.0.0.1:8080"
//	request_timeout = "10s"
//	poll_interval = "5s"
//	log_file = "~/.local/state/sleuth/sleuth.log"
//	log_level = "info"
//
//	[upload]
//	max_bytes = 524288000
//	timeout = "5m"
//
//	[viewer]
//	strategy = "incremental"   # or "bulk"
//	bulk_page_size = 3000
//	page_size = 200
//	concurrency = 8
//
// String values are trimmed, empty values fall back to defaults and paths
// starting with ~ are expanded to the user's home directory.
//
// Command-line flags and SLEUTH_* environment variables are layered on top
// by the cli package.
package config
