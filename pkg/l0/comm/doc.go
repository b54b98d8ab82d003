// Package comm provides L0 protocol support.
package comm

// L0 protocol is communicated between the MCU firmware and the bridge.
// One fixed size packet goes out per control cycle carrying the target
// wheel speeds, and one comes back carrying the accumulated encoder counts.
//
// The packet is protected by a 16-bit checksum in its header. On a UDP
// socket each datagram is one packet. On a serial line the packet is COBS
// encoded and frames are separated by a single zero byte, so the stream
// can resynchronize after garbage by waiting for the next delimiter.
//
// Producer: bridge (wheel speeds), MCU firmware (encoder counts)
// Consumer: MCU firmware (wheel speeds), bridge (encoder counts)
