// Package resolve locates the concrete artifact a reference designates,
// applying Ansible's convention-based search order. Lookup order is data
// (a Conventions table) rather than inline conditionals, and the
// filesystem is injected, so conventions are testable against a virtual
// filesystem.
package resolve
