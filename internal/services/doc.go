// Package services defines shared utilities consumed by the recorder, the
// highlight pipeline, and the daemon surfaces.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, phase names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (configuration vs external tool vs transient) without string
//     matching.
package services
