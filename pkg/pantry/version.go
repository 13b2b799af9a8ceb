// Package pantry holds build metadata for the pantry module.
package pantry

// Version is the current pantry release.
const Version = "0.3.0"

// ModulePath is the Go module path.
const ModulePath = "github.com/mesh-intelligence/pantry"
