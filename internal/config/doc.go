// Package config provides configuration structures and utilities for seoscan.
// It defines crawl limits, link checking, report and history settings, the
// .seoscan YAML file with per-site overrides, and the .env overlay.
package config
