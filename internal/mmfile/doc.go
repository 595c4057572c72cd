// Package mmfile provides platform-specific helpers for obtaining large,
// page-granular byte regions outside the Go heap.
package mmfile
