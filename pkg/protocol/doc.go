// Package protocol implements the binary wire protocol between a server
// that renders vdom trees and a client that mirrors the resulting host tree.
//
// The server renders into an in-memory host wrapped by a Recorder. After
// each render pass the recorded host mutations are sent as one Batch; the
// client applies them with a Replayer that maps server handles to its own
// nodes. Listeners travel as event names only. When the user interacts, the
// client sends an Event naming the server handle and the event, the server
// dispatches it to the real handler, re-renders and sends the next batch.
//
// # Wire Format
//
// Every message is a Frame with a 5-byte header:
//
//	┌─────────────┬───────────────────────────────┐
//	│ Frame Type  │ Payload Length                │
//	│ (1 byte)    │ (4 bytes, big-endian)         │
//	└─────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameMutations (0x01): Server → Client mutation batch
//   - FrameEvent (0x02): Client → Server event
//   - FrameError (0x03): Error message
//
// # Encoding
//
//   - Varint: handles, counts and sequence numbers (protobuf-style)
//   - Length-prefixed: strings prefixed with a varint length
//   - Big-endian: fixed-width integers (error codes)
//
// # Mutations
//
// Each mutation is an opcode byte followed by its operands, for example:
//
//	InsertBefore: [0x04][Parent: varint][Node: varint][Ref: varint]
//	SetAttribute: [0x06][Node: varint][Name: len-prefixed][Value: len-prefixed]
//
// Decoding enforces MaxStringSize and MaxCollectionCount so a malformed
// length prefix cannot force a large allocation.
package protocol
