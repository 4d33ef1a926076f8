// Package store holds parsed uploads in memory, keyed by dataset ID, with
// TTL eviction. Caching is a presentation-layer concern: the compute engine
// stays stateless and is simply re-run against whichever dataset the UI
// addresses. Nothing survives process restart.
package store
