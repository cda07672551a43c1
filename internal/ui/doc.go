// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI presents the results grid as a multi-view workflow:
//  1. [GridView] : Browse the visible rows, sort, shuffle, reverse, remove
//  2. [DetailView] : Inspect one row with linked catalog ids and media URLs
//  3. [RunView] : Monitor a link check or re-download with live progress
//  4. [ResultView] : Display final counts after a bulk run
//
// The [Model] implements bubbletea's standard Init/Update/View pattern.
// Progress updates flow through a channel from the tasks engine, providing
// non-blocking status reporting during bulk runs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
