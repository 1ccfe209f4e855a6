// Package internaldefs holds the stable metric name definitions and bucket
// helpers shared by exporter implementations, so every export surface agrees
// on names and boundaries.
package internaldefs
