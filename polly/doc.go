// Package polly provides a client for interacting with the Polly polling API.
//
// Polly is a small HTTP service for creating polls, voting on them, and
// reading vote tallies. This package implements a clean, idiomatic Go client
// that normalizes every server response into either a typed result or a
// classified error.
//
// # Architecture
//
// The package is organized into several components:
//
//   - Client: The main API client holding the bearer token and page size
//   - Types: Domain models representing Polly entities (users, polls, tallies)
//   - API: Interface definitions for testability and modularity
//   - Errors: Structured error type with a failure-kind taxonomy
//
// # Usage
//
// Create a new client with the Polly server URL:
//
//	logger := zerolog.New(os.Stdout)
//	client, err := polly.NewClient(
//		"http://127.0.0.1:8000",
//		logger,
//		polly.WithTimeout(30*time.Second),
//		polly.WithPageSize(50),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	if _, err := client.Login(ctx, "alice", "secret"); err != nil {
//		log.Fatal(err)
//	}
//
//	// Fetch every poll across all pages
//	polls, err := client.GetAllPolls(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Error Handling
//
// Operations never panic and never return partial results on failure. Every
// failure is a *polly.Error carrying a Kind that callers can dispatch on:
//
//	if polly.IsKind(err, polly.KindNotFound) {
//		// Handle missing poll
//	}
//
// Successful results embed an Envelope with the HTTP status, the raw response
// body, and an advisory Warning that is set when the payload does not match
// the shape the server is documented to return. A warning never fails the
// operation.
package polly
