// Package ui implements the rehearsal terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through three views:
//  1. [MassListView] : browse the masses
//  2. [EntryListView] : the program of the selected mass, numbered like the exports
//  3. [LyricsView] : the lyrics of one entry in a scrollable viewport
//
// The songs of the open program form a [player.Session] queue, so n/p move through the program from
// the lyrics view and space flips the play flag. The f key runs an optimistic [favorites.Toggle] for
// the current song. The heart reflects the local state while the write is in flight.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
