// Package output renders snapshots to the console and persists them as JSON
// or CSV without ever overwriting an existing file.
package output
