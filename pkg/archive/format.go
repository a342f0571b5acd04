// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"strings"

	"github.com/files-community/Files-sub019/pkg/codec"
	"github.com/pkg/errors"
)

// Format identifies an archive kind.
type Format int

// Format constants name every archive kind the catalog knows about.
const (
	UnknownFormat Format = iota
	SevenZipFormat
	ZipFormat
	RarFormat
	Rar5Format
	TarFormat
	GzipFormat
	Bzip2Format
	XzFormat
	ZstdFormat
	Lz4Format
	LzmaFormat
	LzwFormat
	ArjFormat
	CabFormat
	ChmFormat
	CompoundFormat
	CpioFormat
	DebFormat
	RpmFormat
	IsoFormat
	UdfFormat
	WimFormat
	XarFormat
	DmgFormat
	HfsFormat
	VhdFormat
	SquashFSFormat
	CramFSFormat
	FlvFormat
	SwfFormat
	LzhFormat
	PEFormat
	ElfFormat
	MachOFormat
	MubFormat
)

// Signature is a byte sequence expected at a fixed offset of an archive.
type Signature struct {
	Offset int
	Magic  []byte
}

// formatInfo is one row of the format table.
type formatInfo struct {
	name       string
	handler    byte
	extensions []string
	signatures []Signature
	executable bool
}

func sig(magic ...byte) Signature { return Signature{Magic: magic} }

func sigAt(offset int, magic string) Signature { return Signature{Offset: offset, Magic: []byte(magic)} }

// formats is the versioned format table. Handler ids follow the 7-Zip
// numbering; zstd and lz4 use the ids of the 7-Zip ZS fork.
// Table version: 3.
var formats = map[Format]formatInfo{
	SevenZipFormat: {name: "7z", handler: 0x07, extensions: []string{"7z"},
		signatures: []Signature{sig(0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C)}},
	ZipFormat: {name: "zip", handler: 0x01,
		extensions: []string{"zip", "jar", "war", "ear", "xpi", "apk", "aar", "whl", "nupkg", "epub", "odt", "ods", "odp", "docx", "xlsx", "pptx", "vsix", "appx", "msix"},
		signatures: []Signature{sig(0x50, 0x4B, 0x03, 0x04), sig(0x50, 0x4B, 0x05, 0x06), sig(0x50, 0x4B, 0x07, 0x08)}},
	// .rar is claimed by both RAR and RAR5 and is therefore never mapped by extension.
	RarFormat: {name: "rar", handler: 0x03,
		signatures: []Signature{sig(0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x00)}},
	Rar5Format: {name: "rar5", handler: 0xCC,
		signatures: []Signature{sig(0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x01, 0x00)}},
	TarFormat: {name: "tar", handler: 0xEE, extensions: []string{"tar"},
		signatures: []Signature{sigAt(257, "ustar")}},
	GzipFormat: {name: "gzip", handler: 0xEF, extensions: []string{"gz", "gzip", "tgz", "tpz"},
		signatures: []Signature{sig(0x1F, 0x8B, 0x08)}},
	Bzip2Format: {name: "bzip2", handler: 0x02, extensions: []string{"bz2", "bzip2", "tbz", "tbz2"},
		signatures: []Signature{sig(0x42, 0x5A, 0x68)}},
	XzFormat: {name: "xz", handler: 0x0C, extensions: []string{"xz", "txz"},
		signatures: []Signature{sig(0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00)}},
	ZstdFormat: {name: "zstd", handler: 0x0E, extensions: []string{"zst", "zstd", "tzst"},
		signatures: []Signature{sig(0x28, 0xB5, 0x2F, 0xFD)}},
	Lz4Format: {name: "lz4", handler: 0x0F, extensions: []string{"lz4"},
		signatures: []Signature{sig(0x04, 0x22, 0x4D, 0x18)}},
	LzmaFormat: {name: "lzma", handler: 0x0A, extensions: []string{"lzma"},
		signatures: []Signature{sig(0x5D, 0x00, 0x00)}},
	LzwFormat: {name: "z", handler: 0x05, extensions: []string{"z", "taz"},
		signatures: []Signature{sig(0x1F, 0x9D)}},
	ArjFormat: {name: "arj", handler: 0x04, extensions: []string{"arj"},
		signatures: []Signature{sig(0x60, 0xEA)}},
	CabFormat: {name: "cab", handler: 0x08, extensions: []string{"cab"},
		signatures: []Signature{sig(0x4D, 0x53, 0x43, 0x46)}},
	ChmFormat: {name: "chm", handler: 0xE9, extensions: []string{"chm", "chi", "chq", "chw"},
		signatures: []Signature{sig(0x49, 0x54, 0x53, 0x46)}},
	CompoundFormat: {name: "compound", handler: 0xE5, extensions: []string{"msi", "msp", "doc", "xls", "ppt"},
		signatures: []Signature{sig(0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1)}},
	CpioFormat: {name: "cpio", handler: 0xED, extensions: []string{"cpio"},
		signatures: []Signature{sigAt(0, "070701"), sigAt(0, "070702"), sigAt(0, "070707")}},
	DebFormat: {name: "deb", handler: 0xEC, extensions: []string{"deb", "udeb"},
		signatures: []Signature{sigAt(0, "!<arch>\ndebian")}},
	RpmFormat: {name: "rpm", handler: 0xEB, extensions: []string{"rpm"},
		signatures: []Signature{sig(0xED, 0xAB, 0xEE, 0xDB)}},
	IsoFormat: {name: "iso", handler: 0xE7, extensions: []string{"iso"},
		signatures: []Signature{sigAt(0x8001, "CD001")}},
	UdfFormat: {name: "udf", handler: 0xE0, extensions: []string{"udf"},
		signatures: []Signature{sigAt(0x8001, "BEA01")}},
	WimFormat: {name: "wim", handler: 0xE6, extensions: []string{"wim", "swm", "esd"},
		signatures: []Signature{sig(0x4D, 0x53, 0x57, 0x49, 0x4D, 0x00, 0x00, 0x00)}},
	XarFormat: {name: "xar", handler: 0xE1, extensions: []string{"xar", "pkg"},
		signatures: []Signature{sigAt(0, "xar!")}},
	DmgFormat: {name: "dmg", handler: 0xE4, extensions: []string{"dmg"}},
	HfsFormat: {name: "hfs", handler: 0xE3, extensions: []string{"hfs", "hfsx"},
		signatures: []Signature{sigAt(0x400, "H+"), sigAt(0x400, "HX")}},
	VhdFormat: {name: "vhd", handler: 0xDC, extensions: []string{"vhd"},
		signatures: []Signature{sigAt(0, "conectix")}},
	SquashFSFormat: {name: "squashfs", handler: 0xD2, extensions: []string{"squashfs", "sfs"},
		signatures: []Signature{sigAt(0, "hsqs")}},
	CramFSFormat: {name: "cramfs", handler: 0xD3, extensions: []string{"cramfs"},
		signatures: []Signature{sig(0x45, 0x3D, 0xCD, 0x28)}},
	FlvFormat: {name: "flv", handler: 0xD6, extensions: []string{"flv"},
		signatures: []Signature{sig(0x46, 0x4C, 0x56, 0x01)}},
	SwfFormat: {name: "swf", handler: 0xD7, extensions: []string{"swf"},
		signatures: []Signature{sigAt(0, "FWS")}},
	LzhFormat: {name: "lzh", handler: 0x06, extensions: []string{"lzh", "lha"},
		signatures: []Signature{sigAt(2, "-lh")}},
	PEFormat: {name: "pe", handler: 0xDD, extensions: []string{"exe", "dll", "sys"}, executable: true,
		signatures: []Signature{sig(0x4D, 0x5A)}},
	ElfFormat: {name: "elf", handler: 0xDE, executable: true,
		signatures: []Signature{sig(0x7F, 0x45, 0x4C, 0x46)}},
	MachOFormat: {name: "macho", handler: 0xDF, executable: true,
		signatures: []Signature{sig(0xCE, 0xFA, 0xED, 0xFE), sig(0xCF, 0xFA, 0xED, 0xFE)}},
	MubFormat: {name: "mub", handler: 0xE2, executable: true,
		signatures: []Signature{sig(0xCA, 0xFE, 0xBA, 0xBE)}},
}

// String returns the short name of f.
func (f Format) String() string {
	if fi, ok := formats[f]; ok {
		return fi.name
	}
	return "unknown"
}

// CodecKey returns the key used to request a decoder for f.
func (f Format) CodecKey() (codec.Key, bool) {
	fi, ok := formats[f]
	if !ok {
		return codec.Key{}, false
	}
	return codec.HandlerKey(fi.handler), true
}

// Extensions returns the file extensions mapped to f, without leading dots.
func (f Format) Extensions() []string {
	return append([]string(nil), formats[f].extensions...)
}

// Signatures returns the byte signatures that identify f.
func (f Format) Signatures() []Signature {
	return append([]Signature(nil), formats[f].signatures...)
}

// ParseFormat returns the format with the given short name.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, fi := range formats {
		if fi.name == name {
			return f, nil
		}
	}
	return UnknownFormat, errors.Wrapf(ErrUnknownFormat, "no format named %q", name)
}

// Formats returns every known format in declaration order.
func Formats() []Format {
	var all []Format
	for f := SevenZipFormat; f <= MubFormat; f++ {
		all = append(all, f)
	}
	return all
}
