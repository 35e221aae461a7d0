// Package client groups embedded tool clients.
//
// The harness talks to the container engine through a Go client library
// rather than shelling out, so the only external binary it needs beyond the
// engine itself is charts-syncer.
package client
