// Package domain contains the core domain entities and value objects for csvship.
//
// This package is the innermost layer of the application. It has no
// dependencies on infrastructure concerns (AWS, file system, logging) and
// contains only the data model of the ingestion pipeline.
//
// # Entities
//
//   - [Record]: One parsed input line keyed by recognized column
//   - [Batch]: Records submitted together in a single store write call
//   - [SuperBatch]: Batches dispatched concurrently as one unit
//   - [WriteItem]: The store-level put operation for one record
//   - [WriteRequest]: Put operations keyed by table; also the unprocessed set
//
// # Invariants
//
//   - Every batch except possibly the last of a run is full
//   - Every super-batch except possibly the last of a run is full
//   - A WriteItem never carries an empty attribute value
package domain
