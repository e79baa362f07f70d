// Package registry discovers topology seed addresses from a registry
// center, so clients need not hard-code the address of a topology
// node.
package registry

// Seeds lists the topology node addresses known to a registry center
type Seeds interface {
	// List returns the currently registered topology node addresses
	List() ([]string, error)
}
