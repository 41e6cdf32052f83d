// Package transcription provides an HTTP client for the speech-to-text
// API with rate limiting, retries, and speaker-labeled transcript
// formatting.
package transcription
