// Package app contains the core application logic. It wires the manifest,
// parameter table, job graph, executor and run ledger together into one run,
// decoupled from any specific entrypoint like a CLI.
package app
