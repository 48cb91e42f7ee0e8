// Package client talks to the BookKeeper HTTP API on behalf of libraryctl
// and keeps the caller's session in a local SQLite store.
package client
