// Package catalog keeps a SQLite record of recording sessions.
//
// Each session row captures where the recording lives, how many detections
// were accepted, how many clips survived extraction, and the merged highlight
// file with its probed duration. Individual detection timestamps are not
// stored; they belong to the session that produced them.
//
// The database lives beside the logs. Schema changes are appended to the
// migrations list in schema.go and applied on Open, tracked by SQLite's
// user_version.
package catalog
