// Package assets implements the storage collaborator receiving confirmed
// captures: bytes land on disk under the configured assets directory and a
// row ties each file to its session, step, and owner for traceability.
package assets
