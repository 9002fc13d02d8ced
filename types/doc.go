// Package types defines the shared data model of the Luminar SDK:
// telemetry events and batches, scores, traces, observations, prompts,
// datasets, and the unified error taxonomy.
//
// Types in this package are plain data carriers. All network and queueing
// behavior lives in the api and internal packages.
package types
