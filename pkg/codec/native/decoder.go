// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

//go:build (linux || darwin || freebsd || windows) && (amd64 || arm64)

package native

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/files-community/Files-sub019/pkg/codec"
	"github.com/pkg/errors"
)

// decoder drives one IInArchive object.
type decoder struct {
	lib     *Library
	archive uintptr
	// stream stays exported until Close; the archive keeps a reference.
	stream uintptr
	opened bool
	closed bool
}

var _ codec.Decoder = &decoder{}

var errClosed = errors.New("decoder closed")

func (l *Library) newDecoder(key codec.Key) (codec.Decoder, error) {
	clsid, iface := key, iidInArchive
	var obj uintptr
	r, _, _ := purego.SyscallN(l.createObject,
		uintptr(unsafe.Pointer(&clsid)),
		uintptr(unsafe.Pointer(&iface)),
		uintptr(unsafe.Pointer(&obj)))
	if hr := hresult(int32(uint32(r))); hr != sOK || obj == 0 {
		return nil, errors.Wrapf(codec.ErrUnsupportedFormat, "creating handler %s: %v", key, hr)
	}
	return &decoder{lib: l, archive: obj}, nil
}

func (d *decoder) Open(in codec.InStream, scanWindow uint64) error {
	if d.closed {
		return errClosed
	}
	if d.opened {
		return errors.New("decoder already opened")
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	v := vtbls()
	d.stream = exportObject(v.inStream, &inStream{in: in})
	cb := exportObject(v.openCallback, &openCallback{})
	defer revoke(cb)
	maxCheck := scanWindow
	switch hr := invoke(d.archive, methodOpen, d.stream, uintptr(unsafe.Pointer(&maxCheck)), cb); hr {
	case sOK:
		d.opened = true
		return nil
	case sFalse:
		return codec.ErrNotArchive
	default:
		return errors.Wrapf(codec.ErrNotArchive, "opening archive: %v", hr)
	}
}

func (d *decoder) Count() (uint32, error) {
	if d.closed {
		return 0, errClosed
	}
	var n uint32
	if hr := invoke(d.archive, methodGetNumberOfItems, uintptr(unsafe.Pointer(&n))); hr != sOK {
		return 0, errors.Wrap(hr, "counting items")
	}
	return n, nil
}

func (d *decoder) Property(index uint32, id codec.PropID) (codec.Value, error) {
	if d.closed {
		return codec.Value{}, errClosed
	}
	pv := new(propVariant)
	if hr := invoke(d.archive, methodGetProperty, uintptr(index), uintptr(id), uintptr(unsafe.Pointer(pv))); hr != sOK {
		return codec.Value{}, errors.Wrapf(hr, "reading property %d of item %d", id, index)
	}
	v := pv.value(wcharSize)
	if pv.vt == vtBSTR && pv.val != 0 {
		freeBSTR(uintptr(pv.val))
	}
	return v, nil
}

// allItems asks IInArchive::Extract for every item.
const allItems = ^uint32(0)

func (d *decoder) Extract(indices []uint32, cb codec.ExtractCallback) error {
	if d.closed {
		return errClosed
	}
	if !d.opened {
		return errors.New("decoder not opened")
	}
	var list uintptr
	n := allItems
	if indices != nil {
		if len(indices) == 0 {
			return nil
		}
		list, n = uintptr(unsafe.Pointer(&indices[0])), uint32(len(indices))
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	ec := &extractCallback{cb: cb}
	addr := exportObject(vtbls().extractCallback, ec)
	defer func() {
		revoke(addr)
		ec.revokeAll()
	}()
	hr := invoke(d.archive, methodExtract, list, uintptr(n), 0, addr)
	runtime.KeepAlive(indices)
	if ec.err != nil {
		return ec.err
	}
	if hr != sOK {
		return errors.Wrap(hr, "extracting")
	}
	return nil
}

func (d *decoder) Close() error {
	if d.closed {
		return errClosed
	}
	d.closed = true
	var err error
	if d.opened {
		if hr := invoke(d.archive, methodClose); hr != sOK {
			err = errors.Wrap(hr, "closing archive")
		}
	}
	release(d.archive)
	if d.stream != 0 {
		revoke(d.stream)
	}
	d.lib.release()
	return err
}
