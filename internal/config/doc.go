// Package config loads the global run configuration: trimming defaults,
// per-kind resource requests, tool paths and the manifest run-id suffix.
//
// The file format is HCL. Every block and attribute is optional, and
// anything left out keeps its built-in value, so an empty or absent file
// yields Default().
package config
