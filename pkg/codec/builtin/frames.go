// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package builtin

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/files-community/Files-sub019/pkg/codec"
	"github.com/pkg/errors"
)

var errTruncated = errors.New("stream truncated")

// frameWalker reads frame and block headers, skipping payloads, and fails
// once a header or payload would run past the end of the input.
type frameWalker struct {
	in        codec.InStream
	size, pos int64
}

func newFrameWalker(in codec.InStream, size int64) (*frameWalker, error) {
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return &frameWalker{in: in, size: size}, nil
}

func (w *frameWalker) done() bool { return w.pos == w.size }

func (w *frameWalker) read(n int) ([]byte, error) {
	if w.pos+int64(n) > w.size {
		return nil, errTruncated
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(w.in, b); err != nil {
		return nil, err
	}
	w.pos += int64(n)
	return b, nil
}

func (w *frameWalker) skip(n int64) error {
	if n < 0 || w.pos+n > w.size {
		return errTruncated
	}
	if _, err := w.in.Seek(n, io.SeekCurrent); err != nil {
		return err
	}
	w.pos += n
	return nil
}

// skippable consumes a skippable frame (magic 0x184D2A5?), shared by zstd
// and lz4, and reports whether magic was one.
func (w *frameWalker) skippable(magic uint32) (bool, error) {
	if magic&0xFFFFFFF0 != 0x184D2A50 {
		return false, nil
	}
	b, err := w.read(4)
	if err != nil {
		return true, err
	}
	return true, w.skip(int64(binary.LittleEndian.Uint32(b)))
}

const (
	zstdMagic = 0xFD2FB528
	lz4Magic  = 0x184D2204
)

// verifyZstd walks every frame and block header to the end of the input.
func verifyZstd(in codec.InStream, size int64) error {
	w, err := newFrameWalker(in, size)
	if err != nil {
		return err
	}
	for !w.done() {
		b, err := w.read(4)
		if err != nil {
			return err
		}
		magic := binary.LittleEndian.Uint32(b)
		if ok, err := w.skippable(magic); ok {
			if err != nil {
				return err
			}
			continue
		}
		if magic != zstdMagic {
			return errors.Errorf("bad zstd frame magic %#08x at %d", magic, w.pos-4)
		}
		b, err = w.read(1)
		if err != nil {
			return err
		}
		fhd := b[0]
		single := fhd&0x20 != 0
		header := int64([]int{0, 1, 2, 4}[fhd&0x03])
		switch fcs := fhd >> 6; {
		case fcs == 0 && single:
			header++
		case fcs > 0:
			header += int64(1) << fcs
		}
		if !single {
			header++
		}
		if err := w.skip(header); err != nil {
			return err
		}
		for {
			b, err := w.read(3)
			if err != nil {
				return err
			}
			h := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
			n := int64(h >> 3)
			switch (h >> 1) & 3 {
			case 1:
				n = 1
			case 3:
				return errors.New("reserved zstd block type")
			}
			if err := w.skip(n); err != nil {
				return err
			}
			if h&1 != 0 {
				break
			}
		}
		if fhd&0x04 != 0 {
			if err := w.skip(4); err != nil {
				return err
			}
		}
	}
	return nil
}

// verifyLz4 walks every lz4 frame to its end mark.
func verifyLz4(in codec.InStream, size int64) error {
	w, err := newFrameWalker(in, size)
	if err != nil {
		return err
	}
	for !w.done() {
		b, err := w.read(4)
		if err != nil {
			return err
		}
		magic := binary.LittleEndian.Uint32(b)
		if ok, err := w.skippable(magic); ok {
			if err != nil {
				return err
			}
			continue
		}
		if magic != lz4Magic {
			return errors.Errorf("bad lz4 frame magic %#08x at %d", magic, w.pos-4)
		}
		b, err = w.read(2)
		if err != nil {
			return err
		}
		flg := b[0]
		if flg>>6 != 1 {
			return errors.Errorf("unsupported lz4 frame version %d", flg>>6)
		}
		header := int64(1)
		if flg&0x08 != 0 {
			header += 8
		}
		if flg&0x01 != 0 {
			header += 4
		}
		if err := w.skip(header); err != nil {
			return err
		}
		var blockSum int64
		if flg&0x10 != 0 {
			blockSum = 4
		}
		for {
			b, err := w.read(4)
			if err != nil {
				return err
			}
			n := int64(binary.LittleEndian.Uint32(b) & 0x7FFFFFFF)
			if binary.LittleEndian.Uint32(b) == 0 {
				break
			}
			if err := w.skip(n + blockSum); err != nil {
				return err
			}
		}
		if flg&0x04 != 0 {
			if err := w.skip(4); err != nil {
				return err
			}
		}
	}
	return nil
}

// verifyXz checks the footer of the last stream, after any stream padding,
// and that its backward size points at an index.
func verifyXz(in codec.InStream, size int64) error {
	end := size
	pad := make([]byte, 4)
	for end >= 4 {
		if _, err := in.Seek(end-4, io.SeekStart); err != nil {
			return err
		}
		if _, err := io.ReadFull(in, pad); err != nil {
			return err
		}
		if !bytes.Equal(pad, []byte{0, 0, 0, 0}) {
			break
		}
		end -= 4
	}
	if end < 24 {
		return errTruncated
	}
	footer := make([]byte, 12)
	if _, err := in.Seek(end-12, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.ReadFull(in, footer); err != nil {
		return err
	}
	if !bytes.Equal(footer[10:], []byte("YZ")) {
		return errors.Wrap(errTruncated, "missing xz stream footer")
	}
	if crc32.ChecksumIEEE(footer[4:10]) != binary.LittleEndian.Uint32(footer) {
		return errors.New("xz stream footer checksum mismatch")
	}
	index := end - 12 - (int64(binary.LittleEndian.Uint32(footer[4:]))+1)*4
	if index < 12 {
		return errors.New("xz index out of range")
	}
	indicator := make([]byte, 1)
	if _, err := in.Seek(index, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.ReadFull(in, indicator); err != nil {
		return err
	}
	if indicator[0] != 0 {
		return errors.New("xz index indicator missing")
	}
	return nil
}
