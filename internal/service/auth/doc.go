// Package auth verifies the bearer tokens that identify task owners.
//
// Two verifiers are provided. HMACVerifier checks HS256 tokens signed with a
// shared secret and can mint them, which local development and the operator
// CLI rely on. JWKSVerifier checks RS256 tokens issued by an external identity
// provider against the keys it publishes; CachedKeySource fetches that key set
// lazily, reuses it across requests and forgets it after a failed fetch.
package auth
