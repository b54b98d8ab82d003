// Package msgs provides L1 protocol support and all message schemas.
package msgs

// L1 protocol is communicated between the bridge and the components
// commanding or observing it. Messages are protobuf encoded and wrapped
// in Typed which carries the type ID and the command sequence.
//
// Producer: bridge (odometry, transform, status), operator tools (commands)
// Consumer: operator tools and navigation stacks (events), bridge (commands)
