// Package report renders statistics run results in multiple output formats.
//
// Three writers are provided: a plain-text writer for terminal display, a
// JSON writer for tool integration, and a Markdown writer for documentation
// and sharing. All writers implement the same Writer interface, and a
// MultiWriter fans one report out to several destinations at once.
package report
