// Package tools defines the LocalMind tool catalog.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, parameter table, handler.
//   - GenerateSchema[T](): derive JSON Schema from Go input structs.
//   - Envelope: the {ok, result|error} shape every dispatch returns.
//   - Read-only host tools backed by internal/sysinfo, and the two
//     filesystem tools backed by internal/scan.
//
// The catalog is fixed for the life of the process; CatalogVersion changes
// whenever a tool or parameter changes.
package tools
