// Package main provides the entry point for the pkgstats CLI.
//
// pkgstats reports Debian package statistics: it downloads the compressed
// Contents index for an architecture from a package mirror and prints the
// packages associated with the most files.
//
// Usage:
//
//	pkgstats stats <architecture>
//	pkgstats history
//
// See --help for all available options.
package main

// main is the entry point for pkgstats.
func main() {
	Execute()
}
