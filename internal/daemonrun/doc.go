// Package daemonrun bootstraps the daemon process: per-run logging, log
// retention, the pid file, the session catalog, production recorder wiring,
// the IPC server and signal handling.
package daemonrun
