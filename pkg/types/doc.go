// Package types defines the Pantry interface, the grocery entities (users,
// lists, list items, purchases, purchase items), configuration, and the
// standard errors returned by storage backends.
package types
