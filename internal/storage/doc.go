// Package storage provides JSON persistence for the event feed and the
// source-health log.
//
// Every file is replaced atomically: data is written to a temporary file in
// the target directory, synced, and renamed over the destination, so readers
// such as a static site never observe a partial feed. The health log lives in
// the data directory, by default ~/.local/share/museum-events/.
package storage
