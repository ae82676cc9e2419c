// Package preflight provides readiness checks for the directories, binaries
// and services clipwatch depends on.
//
// These checks run in two contexts:
//   - The daemon logs RunAll results at startup so a misconfigured capture
//     setup is visible before the first recording.
//   - The CLI "clipwatch status" and "clipwatch deps" commands display the
//     same results when the daemon is offline.
//
// Each check is gated by its config section; unconfigured features are
// skipped or reported as disabled.
package preflight
