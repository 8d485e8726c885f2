// Package integration runs the auditor end to end against PostgreSQL and a
// GraphQL server that stands in for GitHub.
//
// The suite starts a Postgres container through testcontainers, so Docker
// must be available:
//
//	go test ./test-integration/...
package integration
