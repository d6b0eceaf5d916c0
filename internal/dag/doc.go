// Package dag is a small, concurrency-safe directed acyclic graph keyed by
// string ids. It only knows about structure; execution state lives with the
// jobs that the graph's ids refer to.
package dag
