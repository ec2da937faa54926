// Package config loads shelf's configuration file.
//
// # Resolution Order
//
//  1. Defaults
//  2. The TOML file at the given path, or ~/.config/shelf/config.toml
//  3. A .env file in the working directory
//  4. Real environment variables
//
// A missing config file or .env file is not an error.
//
// # TOML Format
//
//	api_url = "https://api.marktube.tv"
//	token_file = "~/.config/shelf/token"
//	log_file = "~/.local/state/shelf/shelf.log"
//	log_level = "info"
//	proxy = "127.0.0.1:9050"
//	request_timeout = "10s"
//	rate_limit = 5
//	max_retries = 2
//	refresh_seconds = 0
//
// Every field is optional. Values are trimmed and paths are tilde-expanded.
// refresh_seconds = 0 disables background refresh.
//
// # Environment
//
//   - SHELF_API_URL: overrides api_url
//   - SHELF_TOKEN: use this token instead of the token file
//   - SHELF_PROXY: overrides proxy; empty disables it
//   - SHELF_LOG_FILE: overrides log_file; empty disables logging
package config
