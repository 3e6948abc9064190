// Package server implements the HTTP server and HTTP handlers for the
// file-sharing service. It wires together the HTTP routes, dependencies
// (database, MinIO client), and provides lifecycle helpers used by
// tests and the production binary.
package server
