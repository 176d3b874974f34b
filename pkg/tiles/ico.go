// Tilesync Core
// Copyright (c) 2025 The Tilesync Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Tilesync Core.
//
// Tilesync Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Tilesync Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Tilesync Core.  If not, see <http://www.gnu.org/licenses/>.

package tiles

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
)

// icoMagic is the ICONDIR prefix: reserved zero, type 1 (icon).
var icoMagic = []byte{0x00, 0x00, 0x01, 0x00}

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

var errNoDecodableFrame = errors.New("icon container has no decodable frame")

// IsICOData reports whether data starts like an ICO container. Used to
// decide whether an existing cached shortcut icon can be reused as-is.
func IsICOData(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], icoMagic)
}

type icoEntry struct {
	width  int
	height int
	size   int
	offset int
}

// decodeICO decodes the best frame from an ICO container: the smallest
// frame at least target pixels wide, or the largest frame when none reach
// target. Frames are PNG-compressed or 32-bit uncompressed bitmaps; other
// encodings are skipped.
func decodeICO(data []byte, target int) (image.Image, error) {
	if !IsICOData(data) || len(data) < 6 {
		return nil, errors.New("not an icon container")
	}
	count := int(binary.LittleEndian.Uint16(data[4:6]))
	entries := make([]icoEntry, 0, count)
	for i := 0; i < count; i++ {
		off := 6 + i*16
		if off+16 > len(data) {
			break
		}
		e := icoEntry{
			width:  int(data[off]),
			height: int(data[off+1]),
			size:   int(binary.LittleEndian.Uint32(data[off+8 : off+12])),
			offset: int(binary.LittleEndian.Uint32(data[off+12 : off+16])),
		}
		// Zero dimension bytes mean 256.
		if e.width == 0 {
			e.width = 256
		}
		if e.height == 0 {
			e.height = 256
		}
		if e.offset+e.size > len(data) || e.size <= 0 {
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, errNoDecodableFrame
	}

	// Smallest frame meeting the target beats a larger one: less downscale
	// blur. Nothing meets it, take the largest available.
	best := -1
	for i, e := range entries {
		if best == -1 {
			best = i
			continue
		}
		b := entries[best]
		if e.width >= target && (b.width < target || e.width < b.width) {
			best = i
		} else if b.width < target && e.width > b.width {
			best = i
		}
	}

	// Try the chosen frame first, then the rest in order, so a corrupt
	// frame does not fail an otherwise usable icon.
	order := append([]int{best}, allExcept(len(entries), best)...)
	for _, i := range order {
		e := entries[i]
		frame := data[e.offset : e.offset+e.size]
		img, err := decodeFrame(frame, e.width, e.height)
		if err == nil {
			return img, nil
		}
	}
	return nil, errNoDecodableFrame
}

func allExcept(n, skip int) []int {
	out := make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		if i != skip {
			out = append(out, i)
		}
	}
	return out
}

func decodeFrame(frame []byte, width, height int) (image.Image, error) {
	if bytes.HasPrefix(frame, pngMagic) {
		img, err := png.Decode(bytes.NewReader(frame))
		if err != nil {
			return nil, fmt.Errorf("failed to decode png frame: %w", err)
		}
		return img, nil
	}
	return decodeDIBFrame(frame, width, height)
}

// decodeDIBFrame decodes a 32-bit uncompressed device-independent bitmap
// frame: a BITMAPINFOHEADER with doubled height, bottom-up BGRA rows, then
// a 1-bit AND mask. Icons predating alpha channels leave every alpha byte
// zero and carry transparency in the mask alone.
func decodeDIBFrame(frame []byte, width, height int) (image.Image, error) {
	const headerLen = 40
	if len(frame) < headerLen {
		return nil, errors.New("bitmap frame truncated")
	}
	if binary.LittleEndian.Uint32(frame[0:4]) != headerLen {
		return nil, errors.New("unsupported bitmap header")
	}
	bitCount := int(binary.LittleEndian.Uint16(frame[14:16]))
	compression := binary.LittleEndian.Uint32(frame[16:20])
	if bitCount != 32 || compression != 0 {
		return nil, fmt.Errorf("unsupported bitmap frame: %d bpp compression %d", bitCount, compression)
	}

	xorSize := width * height * 4
	if len(frame) < headerLen+xorSize {
		return nil, errors.New("bitmap frame truncated")
	}
	xor := frame[headerLen : headerLen+xorSize]

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	allAlphaZero := true
	for y := 0; y < height; y++ {
		srcRow := (height - 1 - y) * width * 4
		for x := 0; x < width; x++ {
			o := srcRow + x*4
			d := img.PixOffset(x, y)
			img.Pix[d+0] = xor[o+2]
			img.Pix[d+1] = xor[o+1]
			img.Pix[d+2] = xor[o+0]
			img.Pix[d+3] = xor[o+3]
			if xor[o+3] != 0 {
				allAlphaZero = false
			}
		}
	}

	if allAlphaZero {
		applyANDMask(img, frame[headerLen+xorSize:], width, height)
	}
	return img, nil
}

func applyANDMask(img *image.NRGBA, mask []byte, width, height int) {
	// Mask rows are padded to 32-bit boundaries, stored bottom-up, one bit
	// per pixel, set bit meaning transparent.
	rowBytes := ((width + 31) / 32) * 4
	if len(mask) < rowBytes*height {
		// No usable mask: treat the image as fully opaque.
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = 0xFF
		}
		return
	}
	for y := 0; y < height; y++ {
		row := mask[(height-1-y)*rowBytes:]
		for x := 0; x < width; x++ {
			transparent := row[x/8]&(0x80>>(x%8)) != 0
			d := img.PixOffset(x, y)
			if transparent {
				img.Pix[d+3] = 0x00
			} else {
				img.Pix[d+3] = 0xFF
			}
		}
	}
}

// EncodeShortcutIcon writes img as a single-frame PNG-compressed icon container.
// Frames cap at 256 pixels; larger images must be resized first.
func EncodeShortcutIcon(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width > 256 || height > 256 {
		return fmt.Errorf("icon frame %dx%d exceeds 256 pixel cap", width, height)
	}

	var frame bytes.Buffer
	if err := png.Encode(&frame, img); err != nil {
		return fmt.Errorf("failed to encode icon frame: %w", err)
	}

	header := make([]byte, 6+16)
	copy(header[0:4], icoMagic)
	binary.LittleEndian.PutUint16(header[4:6], 1)
	// Dimension bytes wrap at 256.
	header[6] = byte(width % 256)
	header[7] = byte(height % 256)
	binary.LittleEndian.PutUint16(header[10:12], 1)  // planes
	binary.LittleEndian.PutUint16(header[12:14], 32) // bit depth
	binary.LittleEndian.PutUint32(header[14:18], uint32(frame.Len()))
	binary.LittleEndian.PutUint32(header[18:22], uint32(len(header)))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write icon header: %w", err)
	}
	if _, err := w.Write(frame.Bytes()); err != nil {
		return fmt.Errorf("failed to write icon frame: %w", err)
	}
	return nil
}
