// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/bitspec/pkg/layout"
)

// RecordStore persists encoded records. *storage.Store implements it.
type RecordStore interface {
	Put(l *layout.Layout, rec *layout.Record) (ksuid.KSUID, error)
	Get(l *layout.Layout, id ksuid.KSUID) (*layout.Record, error)
	Delete(layoutName string, id ksuid.KSUID) error
	List(layoutName string) ([]ksuid.KSUID, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves until ctx is cancelled
	StartServer(ctx context.Context, config ServerConfig, deps Deps) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
