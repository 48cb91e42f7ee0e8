// Package cli implements libraryctl, the BookKeeper command-line tool.
//
// Administrative commands (migrate, create-admin) open the store directly
// using the server configuration. Everything else goes through the HTTP API
// with the token saved by "libraryctl login".
package cli
