// Package broadcast implements the cross-instance session notification
// channel: a persisted well-known key whose writes are announced to every
// other instance sharing the same Redis scope.
//
// The mechanism mirrors a storage-change event rather than a dedicated
// broadcast API: Post persists the latest message under the shared key (late
// joiners can inspect it) and publishes the same bytes on a derived pub/sub
// channel; Receive subscribes and delivers well-formed session messages posted
// by other instances. Self-exclusion is part of the contract: a channel never
// observes its own posts.
//
// # Architecture boundaries
//
// This package owns the wire message shape and the delivery/filter rules. It
// does NOT decide what a session message means; the synchronizer in the root
// package interprets deliveries as storage triggers.
//
// # What this package must NOT do
//
//   - Propagate medium failures. A blocked or absent persistence medium
//     degrades to "no cross-instance sync", never to an error the caller sees.
//   - Guarantee cross-instance ordering. Consumers must treat a delivery as a
//     hint to re-read ground truth, not as authoritative state.
package broadcast
