// Package runctx carries per-call state between minification stages: the
// fragment table and the sort chains. A fresh
// Context is made for every top-level call; nested calls extend a child
// from their parent.
package runctx

import "errors"

// ErrReadOnly is returned by Set on the Default context.
var ErrReadOnly = errors.New("runctx: default context is read-only")

// Key names a context entry.
type Key string

const (
	KeyFragments  Key = "fragments"
	KeyAttrChains Key = "attr-chains"
	KeyClassChain Key = "class-chain"
)

// Context is a small keyed store. It is not safe for concurrent use.
type Context struct {
	values   map[Key]any
	readOnly bool
}

// Default is the empty template top-level calls extend from.
var Default = &Context{readOnly: true}

// New returns an empty, writable context.
func New() *Context {
	return &Context{values: make(map[Key]any)}
}

// Extend copies every entry of parent into c. Values are copied by
// reference, so pointer values stay shared with the parent.
func (c *Context) Extend(parent *Context) {
	if parent == nil {
		return
	}
	for k, v := range parent.values {
		c.values[k] = v
	}
}

// Set stores v under k.
func (c *Context) Set(k Key, v any) error {
	if c.readOnly {
		return ErrReadOnly
	}
	c.values[k] = v
	return nil
}

// Value returns the entry under k when it holds a T.
func Value[T any](c *Context, k Key) (T, bool) {
	v, ok := c.values[k].(T)
	return v, ok
}
