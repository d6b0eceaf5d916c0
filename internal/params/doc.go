// Package params holds the per-sample trimming parameters: the resolved
// TrimConfig, the partial override records loaded from an override file, and
// the fallback chain that maps a sample to its configuration.
//
// Resolution is two-level. First a table entry is chosen by key (sample name,
// run id, "<sample>_<run>", run-id prefix, then substring match over keys in
// lexicographic order). Then every field absent from the chosen entry falls
// back to the global defaults. A sample with no matching entry gets the
// defaults verbatim with Customized=false.
package params
