// Package config provides configuration structures and utilities for pkgstats.
// It defines the run options for fetching a Contents index, the optional
// .pkgstats YAML file, and the XDG directory helpers used for cache and
// database placement.
package config
