// Package fetch downloads architecture-specific Contents indexes from a
// Debian package mirror.
//
// The fetcher builds the index URL from mirror, suite, component, and
// architecture, downloads the gzip-compressed file to a temp location under
// the XDG cache directory, and hands back a Manifest whose Reader streams
// the decompressed text. Closing the Manifest removes the temp file unless
// the caller asked to keep it, so the download artifact cannot outlive a run
// by accident.
package fetch
