// Package monitor repeats sweeps on a fixed cadence and reports the hosts that
// appeared or disappeared between consecutive snapshots.
package monitor
