// Package git reads repository metadata used to name the top-level catalog
// location of a monorepo.
package git
