// Package registry is the catalog mapping a node-type identifier to a
// constructor for an executable node instance.
//
// A Registry is an explicit value owned by the host process. It is populated
// once at startup, validated, and treated as read-only for the rest of the
// process lifetime; the executor only reads from it. Tests construct a fresh
// registry each time to stay hermetic.
package registry
