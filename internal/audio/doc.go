// Package audio handles per-session audio accumulation and encoding.
// It implements an append-only float32 sample buffer fed by the browser
// automation driver and encoding of captured samples into a mono
// 32-bit-float PCM WAV container for archival and transcription.
package audio
