// Package auth implements user accounts and bearer-token sessions backed
// by the embedded BadgerDB instance. Tokens are opaque UUIDs with a
// configurable TTL; passwords are stored as salted SHA-256 digests.
package auth
