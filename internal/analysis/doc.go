// Package analysis derives a meeting summary, action items, and
// sentiment from a transcript using an LLM chat completion.
package analysis
