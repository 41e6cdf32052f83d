// Package artifact uploads session artifacts (recordings, transcripts) to
// an S3-compatible object store and returns retrievable URLs.
package artifact
