// Package sweep resolves every address of a range concurrently and collects
// the hosts that answered into a snapshot.
//
// Each address is handled by exactly one task. A task makes up to Retries+1
// resolve attempts, each bounded by Timeout, and its final attempt decides the
// outcome. An attempt is retried when it errors or when the answer is missing
// or all-zero. Active hosts are enriched through the vendor lookup. The returned
// snapshot is ordered by IP regardless of completion order.
package sweep
