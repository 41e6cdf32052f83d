// Package session manages the lifecycle of recording sessions: capture
// through the driver bridge, single-flight finalization, the concurrent
// post-processing pipeline, and persistence of the resulting meeting
// record.
package session
