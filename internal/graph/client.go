// Package graph talks to the Bolt-compatible graph database that dispatch
// tooling reads collection routes from.
package graph

import (
	"context"
	"errors"
)

// Client is the write-side contract the route repository needs.
type Client interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Summary, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Summary reports what a write statement changed.
type Summary struct {
	NodesCreated         int
	RelationshipsCreated int
	RelationshipsDeleted int
	PropertiesSet        int
}

// Options configures a graph client implementation.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("graph URI is required")
