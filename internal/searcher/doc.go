// Package searcher provides pooled scratch state for location queries.
//
// A Searcher owns everything a single query needs:
//   - visited sets for edges and nodes, reset in time proportional to use
//   - a bounded max-heap holding the k best candidates
//   - a reusable polyline buffer for edge geometry
//
// Searchers are taken from a package-level pool by Get and returned by Put.
package searcher
