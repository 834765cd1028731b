// Package storage defines the file-system abstraction for content and artifacts.
package storage

// Provider is the interface for file operations relative to a root directory.
type Provider interface {
	// List returns the names of every content file directly under the root,
	// in lexical order.
	List() ([]string, error)
	// Read returns the raw bytes of the file at name (relative to root).
	Read(name string) ([]byte, error)
	// Write atomically replaces the file at name (relative to root).
	Write(name string, content []byte) error
	// Delete removes the file at name (relative to root).
	Delete(name string) error
	// Root returns the absolute root directory.
	Root() string
}
