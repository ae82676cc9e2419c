// Package logs tails the daemon's JSON log and renders entries for the CLI.
//
// Tail streams a file with bounded memory, supports negative offsets for
// "last N lines" reads, and long-polls in follow mode. Entry parses the JSON
// lines the daemon writes so `clipwatch logs` can filter by session and
// print a compact one-line form.
package logs
