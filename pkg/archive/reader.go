// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/files-community/Files-sub019/pkg/codec"
	billy "github.com/go-git/go-billy/v5"
	"github.com/pkg/errors"
)

type options struct {
	format     Format
	catalog    *Catalog
	scanWindow uint64
	logger     *log.Logger
	progress   func(completed, total uint64)
}

// Option configures Open and OpenStream.
type Option func(*options)

// WithFormat skips format resolution and opens the source as f.
func WithFormat(f Format) Option {
	return func(o *options) { o.format = f }
}

// WithCatalog resolves formats with c instead of DefaultCatalog.
func WithCatalog(c *Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithScanWindow bounds how far the backend searches for the archive start.
func WithScanWindow(n uint64) Option {
	return func(o *options) { o.scanWindow = n }
}

// WithLogger reports per-entry failures to l.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithProgress calls fn as the backend reports extraction progress.
func WithProgress(fn func(completed, total uint64)) Option {
	return func(o *options) { o.progress = fn }
}

func newOptions(opts []Option) options {
	o := options{
		catalog:    DefaultCatalog,
		scanWindow: codec.DefaultScanWindow,
		logger:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Reader gives access to the entries of one archive.
//
// A Reader is not safe for concurrent use. Extractions run one at a time on
// the calling goroutine.
type Reader struct {
	handle *codec.Handle
	src    *source
	in     codec.InStream
	format Format
	name   string
	opts   options

	listed  bool
	entries []*Entry
	err     error
}

// Open opens the archive file at path using lib.
func Open(lib codec.Library, path string, opts ...Option) (*Reader, error) {
	o := newOptions(opts)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening archive")
	}
	format := o.format
	if format == UnknownFormat {
		if format, err = o.catalog.ResolveForPath(path, f); err != nil {
			f.Close()
			return nil, err
		}
	}
	r, err := newReader(lib, f, f, format, o)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "%s", path)
	}
	r.name = path
	return r, nil
}

// OpenStream opens the archive read from rs using lib. The stream stays
// owned by the caller and must outlive the Reader.
func OpenStream(lib codec.Library, rs io.ReadSeeker, opts ...Option) (*Reader, error) {
	o := newOptions(opts)
	format := o.format
	if format == UnknownFormat {
		var err error
		if format, err = o.catalog.ResolveBySignature(rs); err != nil {
			return nil, err
		}
	}
	return newReader(lib, rs, nil, format, o)
}

func newReader(lib codec.Library, rs io.ReadSeeker, owned io.Closer, format Format, o options) (*Reader, error) {
	key, ok := format.CodecKey()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownFormat, "no codec for %s", format)
	}
	h, err := codec.CreateHandle(lib, key)
	if err != nil {
		return nil, err
	}
	in, src := newSource(rs, owned)
	return &Reader{handle: h, src: src, in: in, format: format, opts: o}, nil
}

// Format is the format the archive was opened as.
func (r *Reader) Format() Format {
	return r.format
}

// Path is the file the archive was opened from, empty for streams.
func (r *Reader) Path() string {
	return r.name
}

// Entries enumerates the archive on first use and returns the same result,
// error included, on every later call.
func (r *Reader) Entries() ([]*Entry, error) {
	if r.handle.Released() {
		return nil, ErrHandleDisposed
	}
	if !r.listed {
		r.listed = true
		r.entries, r.err = r.list()
	}
	return r.entries, r.err
}

func (r *Reader) list() ([]*Entry, error) {
	if err := r.handle.Open(r.in, r.opts.scanWindow); err != nil {
		if errors.Is(err, codec.ErrDisposed) {
			return nil, err
		}
		return nil, errors.Wrapf(ErrCorruptOrUnsupported, "opening %s archive: %v", r.format, err)
	}
	n, err := r.handle.Count()
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptOrUnsupported, "counting items: %v", err)
	}
	entries := make([]*Entry, 0, n)
	for i := range n {
		entries = append(entries, r.readEntry(i))
	}
	if len(entries) == 1 && entries[0].Path == "" {
		entries[0].Path = defaultItemName(r.name)
	}
	return entries, nil
}

// defaultItemName names the single unnamed item of a compressed stream after
// the archive it came from.
func defaultItemName(archive string) string {
	if archive == "" {
		return "content"
	}
	base := filepath.Base(archive)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	switch strings.ToLower(ext) {
	case "":
		return base + "~"
	case ".tgz", ".tbz", ".tbz2", ".txz", ".tzst", ".tlz4", ".taz", ".tpz":
		return stem + ".tar"
	}
	return stem
}

// Result summarizes a bulk extraction.
type Result struct {
	// Extracted counts entries fully written to their sink.
	Extracted int
	Folders   int
	Skipped   int
	// Failed holds the entries the backend could not extract, in order.
	Failed []*EntryError
}

// Err returns the first entry failure, if any.
func (res *Result) Err() error {
	if len(res.Failed) == 0 {
		return nil
	}
	return res.Failed[0]
}

// Extract resolves a sink for every entry and then extracts the whole archive
// in one pass. Folder sinks are created and stream sinks opened before any
// data flows, so parent folders exist before files land in them.
//
// An error opening a sink aborts before extraction. Entries the backend fails
// to extract are reported in the Result and do not stop the others.
func (r *Reader) Extract(ctx context.Context, resolve SinkResolver) (*Result, error) {
	entries, err := r.Entries()
	if err != nil {
		return nil, err
	}
	res := &Result{}
	table := make([]*sink, len(entries))
	for i, e := range entries {
		s := resolve(e)
		switch s.kind {
		case sinkSkip:
			res.Skipped++
		case sinkFolder:
			if err := s.mkdir(); err != nil {
				closeSinks(table)
				return nil, errors.Wrapf(err, "creating folder for %q", e.Path)
			}
			res.Folders++
		case sinkStream:
			w, owned, err := s.open()
			if err != nil {
				closeSinks(table)
				return nil, errors.Wrapf(err, "opening output for %q", e.Path)
			}
			table[i] = newSink(w, owned)
		}
	}
	if err := r.drive(ctx, nil, entries, table, res); err != nil {
		return res, err
	}
	return res, nil
}

// ExtractToFolder extracts the entries accepted by filter, or all entries
// when filter is nil, under dir on fs.
func (r *Reader) ExtractToFolder(ctx context.Context, fs billy.Filesystem, dir string, filter func(*Entry) bool) (*Result, error) {
	toFolder := ToFolder(fs, dir)
	return r.Extract(ctx, func(e *Entry) Sink {
		if filter != nil && !filter(e) {
			return Skip()
		}
		return toFolder(e)
	})
}

// ExtractToStreams writes entry i to ws[i]. ws must hold exactly one slot
// per entry; nil slots are skipped.
func (r *Reader) ExtractToStreams(ctx context.Context, ws []io.Writer) (*Result, error) {
	entries, err := r.Entries()
	if err != nil {
		return nil, err
	}
	if len(ws) != len(entries) {
		return nil, errors.Errorf("got %d streams for %d entries", len(ws), len(entries))
	}
	return r.Extract(ctx, ToStreams(ws))
}

func (r *Reader) extractOne(ctx context.Context, e *Entry, s Sink) error {
	entries, err := r.Entries()
	if err != nil {
		return err
	}
	if e.Index < 0 || e.Index >= len(entries) || entries[e.Index] != e {
		return errors.Errorf("entry %q does not belong to this archive", e.Path)
	}
	switch s.kind {
	case sinkSkip:
		return nil
	case sinkFolder:
		return s.mkdir()
	}
	w, owned, err := s.open()
	if err != nil {
		return errors.Wrapf(err, "opening output for %q", e.Path)
	}
	table := make([]*sink, len(entries))
	table[e.Index] = newSink(w, owned)
	res := &Result{}
	if err := r.drive(ctx, []uint32{uint32(e.Index)}, entries, table, res); err != nil {
		return err
	}
	return res.Err()
}

// drive runs one backend extraction over table and closes every sink it
// leaves open.
func (r *Reader) drive(ctx context.Context, indices []uint32, entries []*Entry, table []*sink, res *Result) error {
	cb := &extractCallback{
		ctx:      ctx,
		logger:   r.opts.logger,
		progress: r.opts.progress,
		entries:  entries,
		table:    table,
		res:      res,
		current:  -1,
	}
	err := r.handle.Extract(indices, cb)
	cerr := closeSinks(table)
	switch {
	case err == nil:
	case errors.Is(err, codec.ErrDisposed):
		return err
	case cb.err != nil:
		return cb.err
	default:
		return errors.Wrap(err, "extracting")
	}
	if cb.err != nil {
		return cb.err
	}
	if cerr != nil {
		return errors.Wrap(cerr, "closing outputs")
	}
	return nil
}

func closeSinks(table []*sink) error {
	var first error
	for i, s := range table {
		if s == nil {
			continue
		}
		table[i] = nil
		if err := s.close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close releases the backend decoder and, for archives opened by path, the
// file. Closing twice is a no-op. Entries keep their metadata but can no
// longer be extracted.
func (r *Reader) Close() error {
	if r.handle.Released() {
		return nil
	}
	herr := r.handle.Close()
	serr := r.src.close()
	if herr != nil {
		return errors.Wrap(herr, "releasing decoder")
	}
	if serr != nil {
		return errors.Wrap(serr, "closing archive")
	}
	return nil
}

// extractCallback routes backend writes to the sink table by item index.
type extractCallback struct {
	ctx      context.Context
	logger   *log.Logger
	progress func(completed, total uint64)
	entries  []*Entry
	table    []*sink
	res      *Result

	total   uint64
	current int
	mode    codec.AskMode
	// err is the first error handed back to the backend.
	err error
}

var _ codec.ExtractCallback = &extractCallback{}

func (cb *extractCallback) fail(err error) error {
	if cb.err == nil {
		cb.err = err
	}
	return err
}

func (cb *extractCallback) canceled() error {
	if err := cb.ctx.Err(); err != nil {
		return cb.fail(errors.Wrapf(codec.ErrAborted, "%v", err))
	}
	return nil
}

func (cb *extractCallback) SetTotal(total uint64) {
	cb.total = total
	if cb.progress != nil {
		cb.progress(0, total)
	}
}

func (cb *extractCallback) SetCompleted(completed uint64) error {
	if err := cb.canceled(); err != nil {
		return err
	}
	if cb.progress != nil {
		cb.progress(completed, cb.total)
	}
	return nil
}

func (cb *extractCallback) Stream(index uint32, mode codec.AskMode) (io.Writer, error) {
	if err := cb.canceled(); err != nil {
		return nil, err
	}
	if int(index) >= len(cb.table) {
		return nil, cb.fail(errors.Errorf("backend requested item %d of %d", index, len(cb.table)))
	}
	cb.current, cb.mode = int(index), mode
	s := cb.table[index]
	if mode != codec.AskExtract || s == nil {
		return nil, nil
	}
	return s, nil
}

func (cb *extractCallback) Prepare(mode codec.AskMode) error {
	cb.mode = mode
	return nil
}

func (cb *extractCallback) SetResult(result codec.OpResult) error {
	idx := cb.current
	cb.current = -1
	if idx < 0 {
		return nil
	}
	s := cb.table[idx]
	if s == nil || cb.mode != codec.AskExtract {
		return nil
	}
	cb.table[idx] = nil
	e := cb.entries[idx]
	if result == codec.OpOK {
		cb.res.Extracted++
	} else {
		cb.res.Failed = append(cb.res.Failed, &EntryError{Entry: e, Result: result})
		cb.logger.Printf("extracting %q: %s", e.Path, result)
	}
	if err := s.close(); err != nil {
		return cb.fail(errors.Wrapf(err, "closing output for %q", e.Path))
	}
	return nil
}
