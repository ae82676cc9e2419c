// Package api defines wire-format types and converters shared by the IPC and
// HTTP layers. It translates catalog sessions, status hub events, and daemon
// status into transport-friendly DTOs so clients never depend on internal
// types.
//
// DTOs use camelCase JSON tags. Internal enums (catalog.Status, status.Phase)
// are exposed as lowercase strings and timestamps use RFC3339 with
// milliseconds.
package api
