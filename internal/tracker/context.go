// Package tracker implements the playback-state tracking engine: a state
// manager holding the validated transition table, one handler per category of
// player events, and the plugin that fans incoming events out to them.
//
// Everything in this package is single-threaded per tracked instance. The
// host player must deliver events for one instance from one logical thread;
// independent instances may run concurrently.
package tracker

import (
	"github.com/mkettner/comscore-go/internal/comscore"
)

// Context holds the dependencies shared by the state manager and all
// handlers of one tracked session instance: the connector, the immutable
// session configuration, and the canonical content metadata for the asset
// currently bound to the instance.
type Context struct {
	Connector comscore.Connector
	Config    comscore.Configuration

	original *comscore.ContentMetadata
	metadata *comscore.ContentMetadata
}

// NewContext creates a handler context for one session instance
func NewContext(connector comscore.Connector, metadata *comscore.ContentMetadata, config comscore.Configuration) *Context {
	return &Context{
		Connector: connector,
		Config:    config,
		original:  metadata.Clone(),
		metadata:  metadata.Clone(),
	}
}

// InstanceID returns the connector's opaque instance identifier
func (c *Context) InstanceID() int {
	return c.Connector.InstanceID()
}

// Metadata returns the canonical content metadata for the bound asset.
// May be nil after a source change until new metadata loads.
func (c *Context) Metadata() *comscore.ContentMetadata {
	return c.metadata
}

// Original returns the constructor-supplied content metadata, untouched by
// later updates. Reset falls back to this.
func (c *Context) Original() *comscore.ContentMetadata {
	return c.original
}

// UpdateMetadata replaces the canonical content metadata wholesale
func (c *Context) UpdateMetadata(metadata *comscore.ContentMetadata) {
	c.metadata = metadata.Clone()
}

// Reset restores the canonical metadata to the constructor-supplied value
func (c *Context) Reset() {
	c.metadata = c.original.Clone()
}
