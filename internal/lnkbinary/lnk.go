// Package lnkbinary reads and writes Windows Shell Link (.lnk) files.
//
// It covers the subset of the Shell Link format shortcut tiles need: the
// fixed header, LinkTargetIDList and LinkInfo pass-through, and the
// StringData section holding the description, relative path, working
// directory, arguments, and icon location. Extra data blocks after the
// StringData section are preserved verbatim on read so rewrites do not
// destroy them.
package lnkbinary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf16"
)

const headerSize = 76

// linkCLSID is the Shell Link class identifier 00021401-0000-0000-C000-000000000046
// serialized in header byte order.
var linkCLSID = [16]byte{
	0x01, 0x14, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xC0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46,
}

// LinkFlags bits relevant to the StringData section.
const (
	flagHasLinkTargetIDList = 0x01
	flagHasLinkInfo         = 0x02
	flagHasName             = 0x04
	flagHasRelativePath     = 0x08
	flagHasWorkingDir       = 0x10
	flagHasArguments        = 0x20
	flagHasIconLocation     = 0x40
	flagIsUnicode           = 0x80
)

var (
	ErrNotShellLink = errors.New("not a shell link file")
	ErrTruncated    = errors.New("shell link file truncated")
)

// Link is the decoded subset of a shell link. Zero-value string fields mean
// the corresponding flag is absent from the file.
type Link struct {
	Description  string
	RelativePath string
	WorkingDir   string
	Arguments    string
	IconLocation string

	// IconIndex selects an icon within IconLocation, usually 0.
	IconIndex int32

	// idList and linkInfo are opaque sections carried through rewrites.
	idList   []byte
	linkInfo []byte
	// trailer holds everything after StringData, including extra data blocks.
	trailer []byte
}

// Parse decodes a shell link from r.
func Parse(r io.Reader) (*Link, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read shell link: %w", err)
	}
	if len(data) < headerSize {
		return nil, ErrTruncated
	}
	if binary.LittleEndian.Uint32(data[0:4]) != headerSize {
		return nil, ErrNotShellLink
	}
	if !bytes.Equal(data[4:20], linkCLSID[:]) {
		return nil, ErrNotShellLink
	}

	flags := binary.LittleEndian.Uint32(data[20:24])
	if flags&flagIsUnicode == 0 {
		// ANSI string data depends on the writer's code page. Nothing this
		// codec writes is ANSI, so treat such links as foreign.
		return nil, errors.New("shell link without unicode string data")
	}

	link := &Link{
		IconIndex: int32(binary.LittleEndian.Uint32(data[56:60])),
	}
	pos := headerSize

	if flags&flagHasLinkTargetIDList != 0 {
		if pos+2 > len(data) {
			return nil, ErrTruncated
		}
		size := int(binary.LittleEndian.Uint16(data[pos : pos+2]))
		if pos+2+size > len(data) {
			return nil, ErrTruncated
		}
		link.idList = append([]byte(nil), data[pos:pos+2+size]...)
		pos += 2 + size
	}

	if flags&flagHasLinkInfo != 0 {
		if pos+4 > len(data) {
			return nil, ErrTruncated
		}
		size := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
		if size < 4 || pos+size > len(data) {
			return nil, ErrTruncated
		}
		link.linkInfo = append([]byte(nil), data[pos:pos+size]...)
		pos += size
	}

	for _, field := range []struct {
		dst  *string
		flag uint32
	}{
		{&link.Description, flagHasName},
		{&link.RelativePath, flagHasRelativePath},
		{&link.WorkingDir, flagHasWorkingDir},
		{&link.Arguments, flagHasArguments},
		{&link.IconLocation, flagHasIconLocation},
	} {
		if flags&field.flag == 0 {
			continue
		}
		s, n, err := readStringData(data[pos:])
		if err != nil {
			return nil, err
		}
		*field.dst = s
		pos += n
	}

	link.trailer = append([]byte(nil), data[pos:]...)
	return link, nil
}

// Write encodes the link to w. Sections captured at parse time are written
// back unchanged; links built from scratch get an empty terminal ID list.
func (l *Link) Write(w io.Writer) error {
	var flags uint32 = flagIsUnicode
	if len(l.idList) > 0 {
		flags |= flagHasLinkTargetIDList
	}
	if len(l.linkInfo) > 0 {
		flags |= flagHasLinkInfo
	}
	if l.Description != "" {
		flags |= flagHasName
	}
	if l.RelativePath != "" {
		flags |= flagHasRelativePath
	}
	if l.WorkingDir != "" {
		flags |= flagHasWorkingDir
	}
	if l.Arguments != "" {
		flags |= flagHasArguments
	}
	if l.IconLocation != "" {
		flags |= flagHasIconLocation
	}

	var buf bytes.Buffer
	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], headerSize)
	copy(header[4:20], linkCLSID[:])
	binary.LittleEndian.PutUint32(header[20:24], flags)
	// FileAttributes, timestamps, and file size stay zero: the shell fills
	// them in lazily when the target is first resolved.
	binary.LittleEndian.PutUint32(header[56:60], uint32(l.IconIndex))
	header[60] = 0x01 // ShowCommand SW_SHOWNORMAL
	buf.Write(header)

	buf.Write(l.idList)
	buf.Write(l.linkInfo)

	for _, field := range []struct {
		val  string
		flag uint32
	}{
		{l.Description, flagHasName},
		{l.RelativePath, flagHasRelativePath},
		{l.WorkingDir, flagHasWorkingDir},
		{l.Arguments, flagHasArguments},
		{l.IconLocation, flagHasIconLocation},
	} {
		if flags&field.flag == 0 {
			continue
		}
		writeStringData(&buf, field.val)
	}

	if len(l.trailer) > 0 {
		buf.Write(l.trailer)
	} else {
		// Terminal extra data block.
		buf.Write([]byte{0x00, 0x00, 0x00, 0x00})
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write shell link: %w", err)
	}
	return nil
}

func readStringData(data []byte) (string, int, error) {
	if len(data) < 2 {
		return "", 0, ErrTruncated
	}
	count := int(binary.LittleEndian.Uint16(data[0:2]))
	end := 2 + count*2
	if len(data) < end {
		return "", 0, ErrTruncated
	}
	codes := make([]uint16, count)
	for i := 0; i < count; i++ {
		codes[i] = binary.LittleEndian.Uint16(data[2+i*2 : 4+i*2])
	}
	return string(utf16.Decode(codes)), end, nil
}

func writeStringData(buf *bytes.Buffer, s string) {
	codes := utf16.Encode([]rune(s))
	var count [2]byte
	binary.LittleEndian.PutUint16(count[:], uint16(len(codes)))
	buf.Write(count[:])
	for _, c := range codes {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], c)
		buf.Write(b[:])
	}
}
