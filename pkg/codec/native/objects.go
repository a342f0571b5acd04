// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

//go:build (linux || darwin || freebsd || windows) && (amd64 || arm64)

package native

import (
	"io"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/files-community/Files-sub019/pkg/codec"
)

// comObject is what the library sees of a Go object: a vtable pointer.
type comObject struct {
	vtbl uintptr
}

// server is the Go side of an exported object.
type server interface {
	iids() []codec.Key
}

type export struct {
	obj  *comObject
	pin  runtime.Pinner
	refs atomic.Int32
	impl server
}

// exports maps the address handed to the library to its Go object. Exported
// objects live until revoked; the reference count is informational.
var exports = struct {
	sync.Mutex
	m map[uintptr]*export
}{m: map[uintptr]*export{}}

func exportObject(vtbl []uintptr, impl server) uintptr {
	e := &export{obj: &comObject{vtbl: uintptr(unsafe.Pointer(&vtbl[0]))}, impl: impl}
	e.pin.Pin(e.obj)
	e.refs.Store(1)
	addr := uintptr(unsafe.Pointer(e.obj))
	exports.Lock()
	exports.m[addr] = e
	exports.Unlock()
	return addr
}

func revoke(addr uintptr) {
	exports.Lock()
	e := exports.m[addr]
	delete(exports.m, addr)
	exports.Unlock()
	if e != nil {
		e.pin.Unpin()
	}
}

func lookup(this uintptr) *export {
	exports.Lock()
	defer exports.Unlock()
	return exports.m[this]
}

func lookupAs[T server](this uintptr) (T, bool) {
	var zero T
	e := lookup(this)
	if e == nil {
		return zero, false
	}
	impl, ok := e.impl.(T)
	return impl, ok
}

func queryInterface(this, riid, ppv uintptr) uintptr {
	storePtr(ppv, 0)
	e := lookup(this)
	if e == nil || riid == 0 {
		return eNoInterface.ret()
	}
	want := *(*codec.Key)(unsafe.Pointer(riid))
	if want != iidUnknown && !slices.Contains(e.impl.iids(), want) {
		return eNoInterface.ret()
	}
	e.refs.Add(1)
	storePtr(ppv, this)
	return sOK.ret()
}

func addRef(this uintptr) uintptr {
	if e := lookup(this); e != nil {
		return uintptr(e.refs.Add(1))
	}
	return 1
}

func releaseRef(this uintptr) uintptr {
	if e := lookup(this); e != nil {
		return uintptr(max(e.refs.Add(-1), 0))
	}
	return 0
}

func destroy(uintptr) uintptr { return 0 }

type vtables struct {
	inStream, outStream, openCallback, extractCallback []uintptr
	pin                                                runtime.Pinner
}

// vtbls returns the shared vtables, built on first use. Callbacks can never
// be freed. It is assigned in init because extractGetStream refers to it.
var vtbls func() *vtables

func init() { vtbls = sync.OnceValue(buildVtables) }

func buildVtables() *vtables {
	unknown := []uintptr{
		purego.NewCallback(queryInterface),
		purego.NewCallback(addRef),
		purego.NewCallback(releaseRef),
	}
	if destructorSlots > 0 {
		d := purego.NewCallback(destroy)
		for range destructorSlots {
			unknown = append(unknown, d)
		}
	}
	table := func(methods ...any) []uintptr {
		t := slices.Clone(unknown)
		for _, m := range methods {
			t = append(t, purego.NewCallback(m))
		}
		return t
	}
	v := &vtables{
		inStream:        table(inStreamRead, inStreamSeek),
		outStream:       table(outStreamWrite, outStreamSeek, outStreamSetSize),
		openCallback:    table(openSetTotal, openSetCompleted),
		extractCallback: table(extractSetTotal, extractSetCompleted, extractGetStream, extractPrepare, extractSetResult),
	}
	for _, t := range [][]uintptr{v.inStream, v.outStream, v.openCallback, v.extractCallback} {
		v.pin.Pin(&t[0])
	}
	return v
}

// inStream serves IInStream over the archive source.
type inStream struct {
	in codec.InStream
}

func (*inStream) iids() []codec.Key {
	return []codec.Key{iidSequentialInStream, iidInStream}
}

func inStreamRead(this, data, size, processed uintptr) uintptr {
	store32(processed, 0)
	s, ok := lookupAs[*inStream](this)
	if !ok {
		return eFail.ret()
	}
	n := uint32(size)
	if n == 0 {
		return sOK.ret()
	}
	got, err := s.in.Read(unsafe.Slice((*byte)(unsafe.Pointer(data)), n))
	store32(processed, uint32(got))
	if err != nil && err != io.EOF {
		return eFail.ret()
	}
	return sOK.ret()
}

func inStreamSeek(this, offset, origin, newPosition uintptr) uintptr {
	s, ok := lookupAs[*inStream](this)
	if !ok {
		return eFail.ret()
	}
	pos, err := s.in.Seek(int64(offset), int(uint32(origin)))
	if err != nil {
		return eFail.ret()
	}
	store64(newPosition, uint64(pos))
	return sOK.ret()
}

// openCallback serves IArchiveOpenCallback. Handlers report progress while
// scanning headers; nothing listens.
type openCallback struct{}

func (*openCallback) iids() []codec.Key { return []codec.Key{iidArchiveOpenCallback} }

func openSetTotal(this, files, bytes uintptr) uintptr     { return sOK.ret() }
func openSetCompleted(this, files, bytes uintptr) uintptr { return sOK.ret() }

// extractCallback serves IArchiveExtractCallback over a codec.ExtractCallback.
type extractCallback struct {
	cb codec.ExtractCallback

	mu      sync.Mutex
	err     error
	streams []uintptr
}

func (*extractCallback) iids() []codec.Key {
	return []codec.Key{iidProgress, iidArchiveExtractCallback}
}

// fail records the first error raised on the Go side.
func (c *extractCallback) fail(err error) uintptr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
	}
	return eAbort.ret()
}

func (c *extractCallback) revokeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.streams {
		revoke(s)
	}
	c.streams = nil
}

func extractSetTotal(this, total uintptr) uintptr {
	if c, ok := lookupAs[*extractCallback](this); ok {
		c.cb.SetTotal(uint64(total))
	}
	return sOK.ret()
}

func extractSetCompleted(this, completed uintptr) uintptr {
	c, ok := lookupAs[*extractCallback](this)
	if !ok {
		return eFail.ret()
	}
	v, ok := load64(completed)
	if !ok {
		return sOK.ret()
	}
	if err := c.cb.SetCompleted(v); err != nil {
		return c.fail(err)
	}
	return sOK.ret()
}

func extractGetStream(this, index, out, askMode uintptr) uintptr {
	storePtr(out, 0)
	c, ok := lookupAs[*extractCallback](this)
	if !ok {
		return eFail.ret()
	}
	w, err := c.cb.Stream(uint32(index), codec.AskMode(int32(uint32(askMode))))
	if err != nil {
		return c.fail(err)
	}
	if w == nil {
		return sOK.ret()
	}
	addr := exportObject(vtbls().outStream, &outStream{w: w, owner: c})
	c.mu.Lock()
	c.streams = append(c.streams, addr)
	c.mu.Unlock()
	storePtr(out, addr)
	return sOK.ret()
}

func extractPrepare(this, askMode uintptr) uintptr {
	c, ok := lookupAs[*extractCallback](this)
	if !ok {
		return eFail.ret()
	}
	if err := c.cb.Prepare(codec.AskMode(int32(uint32(askMode)))); err != nil {
		return c.fail(err)
	}
	return sOK.ret()
}

func extractSetResult(this, result uintptr) uintptr {
	c, ok := lookupAs[*extractCallback](this)
	if !ok {
		return eFail.ret()
	}
	if err := c.cb.SetResult(codec.OpResult(int32(uint32(result)))); err != nil {
		return c.fail(err)
	}
	return sOK.ret()
}

// outStream serves IOutStream over an entry sink.
type outStream struct {
	w     io.Writer
	owner *extractCallback
}

func (*outStream) iids() []codec.Key {
	return []codec.Key{iidSequentialOutStream, iidOutStream}
}

func outStreamWrite(this, data, size, processed uintptr) uintptr {
	store32(processed, 0)
	s, ok := lookupAs[*outStream](this)
	if !ok {
		return eFail.ret()
	}
	n := uint32(size)
	if n == 0 {
		return sOK.ret()
	}
	got, err := s.w.Write(unsafe.Slice((*byte)(unsafe.Pointer(data)), n))
	store32(processed, uint32(got))
	if err != nil {
		s.owner.fail(err)
		return eFail.ret()
	}
	return sOK.ret()
}

func outStreamSeek(this, offset, origin, newPosition uintptr) uintptr {
	s, ok := lookupAs[*outStream](this)
	if !ok {
		return eFail.ret()
	}
	seeker, ok := s.w.(io.Seeker)
	if !ok {
		return eNotImpl.ret()
	}
	pos, err := seeker.Seek(int64(offset), int(uint32(origin)))
	if err != nil {
		return eFail.ret()
	}
	store64(newPosition, uint64(pos))
	return sOK.ret()
}

func outStreamSetSize(this, size uintptr) uintptr {
	s, ok := lookupAs[*outStream](this)
	if !ok {
		return eFail.ret()
	}
	r, ok := s.w.(codec.Resizer)
	if !ok {
		return sOK.ret()
	}
	if err := r.SetSize(int64(size)); err != nil {
		return eFail.ret()
	}
	return sOK.ret()
}
