// Package driver bridges capture drivers (headless browser bots joining
// a conference) to recording sessions over WebSocket. Binary frames
// carry little-endian float32 audio; text frames carry JSON control
// events.
package driver
