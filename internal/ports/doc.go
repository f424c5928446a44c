// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// # Port Interfaces
//
//   - [BatchWriter]: Submits batches of put operations to the store
//   - [Logger]: Structured logging abstraction
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// implementations (DynamoDB, zerolog, etc.), which keeps the pipeline
// testable with in-memory fakes.
package ports
