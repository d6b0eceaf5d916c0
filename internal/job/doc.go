// Package job defines the two job kinds of a trimming run (one trim job per
// sample and a single aggregate job), their execution state, and the builder
// that expands a sample set into the job graph.
//
// The graph shape is fixed: every trim job is a root and the aggregate job
// depends on all of them. Once built, no job is added or removed.
package job
