// Package generation defines the boundary between the application core
// and the external image-generation provider. It abstracts the details
// of the provider API (Volcengine), allowing the orchestrator to run
// generations without coupling to a specific external service, and
// makes the mock implementation substitutable for the real one.
package generation
