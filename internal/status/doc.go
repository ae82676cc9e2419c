// Package status carries user-facing progress messages for recording sessions.
//
// Hub is a bounded in-memory ring. Publishers never block: long-poll readers use
// Fetch and channel subscribers that fall behind lose events. Nothing in the
// package is used for control flow.
package status
