// Package testutil provides testing utilities for locindex.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random road graphs and for computing
// exact nearest edges and nodes by brute force.
//
// # Random Graph Generation
//
//	rng := testutil.NewRNG(seed)
//	g := rng.RoadGraph(box, 200, 400, 3)
//
// # Exact Search (Ground Truth)
//
//	want := testutil.BruteForceEdges(g, distance.PlaneProjection{}, lat, lon, nil, k)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(want, got)
package testutil
