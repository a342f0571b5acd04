// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// PropID names an item property. The numbering follows the 7-Zip kpid table.
type PropID uint32

const (
	PropNone PropID = iota
	PropMainSubfile
	PropHandlerItemIndex
	PropPath
	PropName
	PropExtension
	PropIsDir
	PropSize
	PropPackSize
	PropAttrib
	PropCTime
	PropATime
	PropMTime
	PropSolid
	PropCommented
	PropEncrypted
	PropSplitBefore
	PropSplitAfter
	PropDictionarySize
	PropCRC
	PropType
	PropIsAnti
	PropMethod
	PropHostOS
	PropFileSystem
	PropUser
	PropGroup
	PropBlock
	PropComment
	PropPosition
)

// Kind is the type tag of a Value.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindBool
	KindUint32
	KindUint64
	KindString
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindBool:
		return "bool"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "invalid"
	}
}

// Value is a property value produced by a backend.
//
// The As* accessors never fail: a missing or mismatched value yields the
// zero value of the requested type. Values of the requested kind are used
// directly; a string is reparsed only as a fallback.
type Value struct {
	kind Kind
	n    uint64
	s    string
	t    time.Time
}

func Empty() Value                { return Value{} }
func Uint32Value(n uint32) Value  { return Value{kind: KindUint32, n: uint64(n)} }
func Uint64Value(n uint64) Value  { return Value{kind: KindUint64, n: n} }
func StringValue(s string) Value  { return Value{kind: KindString, s: s} }
func TimeValue(t time.Time) Value { return Value{kind: KindTime, t: t} }

func BoolValue(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.n = 1
	}
	return v
}

// Kind returns the type tag of v.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether the backend provided no value.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// AsBool returns v as a bool. Numbers are true when non-zero.
func (v Value) AsBool() bool {
	switch v.kind {
	case KindBool, KindUint32, KindUint64:
		return v.n != 0
	case KindString:
		switch strings.ToLower(strings.TrimSpace(v.s)) {
		case "+", "true", "1", "yes":
			return true
		}
	}
	return false
}

// AsUint32 returns v as a uint32. Values that do not fit yield zero.
func (v Value) AsUint32() uint32 {
	n := v.AsUint64()
	if n > math.MaxUint32 {
		return 0
	}
	return uint32(n)
}

// AsUint64 returns v as a uint64.
func (v Value) AsUint64() uint64 {
	switch v.kind {
	case KindUint32, KindUint64:
		return v.n
	case KindString:
		n, err := strconv.ParseUint(strings.TrimSpace(v.s), 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// AsString returns v as a string. Only string values are returned; use
// String for a display form of any kind.
func (v Value) AsString() string {
	if v.kind == KindString {
		return v.s
	}
	return ""
}

// AsTime returns v as a time. Missing timestamps are the zero time.
func (v Value) AsTime() time.Time {
	switch v.kind {
	case KindTime:
		return v.t
	case KindString:
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v.s))
		if err != nil {
			return time.Time{}
		}
		return t
	}
	return time.Time{}
}

// String formats v for display.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.n != 0)
	case KindUint32, KindUint64:
		return strconv.FormatUint(v.n, 10)
	case KindString:
		return v.s
	case KindTime:
		return v.t.Format(time.RFC3339)
	default:
		return ""
	}
}
