// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"encoding/binary"
	"fmt"
)

// Key identifies a decoder implementation inside a backend.
//
// Keys are GUIDs stored in their in-memory (little-endian) layout so they
// can be handed to a native backend unchanged.
type Key [16]byte

// NewKey assembles a Key from the conventional GUID fields.
func NewKey(d1 uint32, d2, d3 uint16, d4 [8]byte) Key {
	var k Key
	binary.LittleEndian.PutUint32(k[0:4], d1)
	binary.LittleEndian.PutUint16(k[4:6], d2)
	binary.LittleEndian.PutUint16(k[6:8], d3)
	copy(k[8:], d4[:])
	return k
}

// HandlerKey returns the key of the archive handler with the given id in the
// 7-Zip handler numbering: {23170F69-40C1-278A-1000-000110xx0000}.
func HandlerKey(id byte) Key {
	return NewKey(0x23170F69, 0x40C1, 0x278A, [8]byte{0x10, 0x00, 0x00, 0x01, 0x10, id, 0x00, 0x00})
}

// HandlerID returns the handler id embedded in k and whether k is a handler key.
func (k Key) HandlerID() (byte, bool) {
	probe := HandlerKey(k[13])
	return k[13], probe == k
}

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool {
	return k == Key{}
}

// String formats k in the registry form {XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX}.
func (k Key) String() string {
	return fmt.Sprintf("{%08X-%04X-%04X-%X-%X}",
		binary.LittleEndian.Uint32(k[0:4]),
		binary.LittleEndian.Uint16(k[4:6]),
		binary.LittleEndian.Uint16(k[6:8]),
		k[8:10],
		k[10:16])
}
