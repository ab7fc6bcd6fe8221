// Package cacheaccess implements the multi-process-safe persistent cache
// access coordinator: it mediates access to an on-disk indexed store
// shared by many cooperating processes and many goroutines within one
// process, acquiring the right kind of inter-process file lock at the
// right time and releasing it opportunistically under contention.
package cacheaccess
