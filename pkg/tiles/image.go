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
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // registered for game icon decoding
	_ "image/jpeg" // registered for game icon decoding
	"image/png"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	_ "golang.org/x/image/bmp" // registered for game icon decoding
	xdraw "golang.org/x/image/draw"
)

// Tile rendition sizes the Windows start screen consumes.
const (
	TileSizeMedium = 150
	TileSizeSmall  = 70
)

// Sources at or below this edge length get nearest-neighbor upscaling so
// pixel-art icons stay crisp instead of smearing.
const (
	pixelArtLimitMedium = 64
	pixelArtLimitSmall  = 16
)

// Bottom-fade parameters tuned for name legibility on the medium tile.
const (
	fadeHeightShort   = 0.28
	fadeHeightLong    = 0.42
	fadeExponent      = 2.8
	fadeFloorAlpha    = 0.5
	longNameThreshold = 12
)

// DecodeIconImage decodes a game icon into a raster image. Icon containers
// pick their best frame for the medium tile size; anything else goes
// through the registered image decoders.
func DecodeIconImage(data []byte, fileName string) (image.Image, error) {
	if IsICOData(data) {
		img, err := decodeICO(data, TileSizeMedium)
		if err != nil {
			return nil, fmt.Errorf("failed to decode icon container %s: %w", fileName, err)
		}
		return img, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", fileName, err)
	}
	return img, nil
}

// AverageBrightness is the mean perceptual lightness over non-transparent
// pixels, in [0, 1]. Fully transparent images report zero.
func AverageBrightness(img image.Image) float64 {
	bounds := img.Bounds()
	var sum float64
	var count int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.At(x, y)
			_, _, _, a := c.RGBA()
			if a == 0 {
				continue
			}
			sum += lightness(c)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// DominantColor derives the tile background from an icon: alpha-weighted
// channel sums squared and renormalized so the strongest channel saturates,
// then pushed away from the icon's average brightness when the two are too
// close for the icon to stand out against the tile.
func DominantColor(img image.Image, avgBrightness float64) (r, g, b uint8) {
	bounds := img.Bounds()
	var sr, sg, sb float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pr, pg, pb, pa := img.At(x, y).RGBA()
			alpha := float64(pa) / 0xFFFF
			sr += (alpha / 255.0) * float64(pr>>8)
			sg += (alpha / 255.0) * float64(pg>>8)
			sb += (alpha / 255.0) * float64(pb>>8)
		}
	}

	sr, sg, sb = sr*sr, sg*sg, sb*sb
	maxC := math.Max(sr, math.Max(sg, sb))
	if maxC <= 0.00001 {
		maxC = 1
	}
	r = clamp255(255 * sr / maxC)
	g = clamp255(255 * sg / maxC)
	b = clamp255(255 * sb / maxC)

	col := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	_, _, l := col.Hsl()
	factor := 0.0
	if math.Abs(avgBrightness)-math.Abs(l) < 0.25 {
		if avgBrightness >= l {
			factor = -1
		} else {
			factor = 1
		}
	}
	r = clamp255(float64(r) + factor*90)
	g = clamp255(float64(g) + factor*90)
	b = clamp255(float64(b) + factor*90)
	return r, g, b
}

// HexColor renders a background color attribute value.
func HexColor(r, g, b uint8) string {
	return colorful.Color{
		R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255,
	}.Hex()
}

// ResizeTile scales an icon to fit the given tile edge, preserving aspect
// ratio so the longer dimension lands exactly on target. Tiny sources below
// pixelArtLimit upscale with nearest-neighbor.
func ResizeTile(src image.Image, target, pixelArtLimit int) *image.NRGBA {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var newW, newH int
	if w <= h {
		scale := float64(target) / float64(h)
		newW = int(math.Round(float64(w) * scale))
		newH = target
	} else {
		scale := float64(target) / float64(w)
		newW = target
		newH = int(math.Round(float64(h) * scale))
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, newW, newH))
	if w <= pixelArtLimit && h <= pixelArtLimit {
		xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)
	}
	return dst
}

// FadeBottomEdge dims the bottom fraction of a tile toward fadeFloorAlpha so
// the name the shell draws there stays readable over busy icons. Pixels
// already more transparent than the fade keep their own alpha.
func FadeBottomEdge(img *image.NRGBA, percentage, exponent, minAlpha float64) {
	bounds := img.Bounds()
	h := bounds.Dy()
	length := percentage * float64(h)
	if length <= 0 {
		return
	}
	for y := 0; y < h; y++ {
		f := (float64(h) - float64(y)) / length
		if f > 1 {
			continue
		}
		if f < 0 {
			f = 0
		}
		mult := minAlpha + math.Pow(f, exponent)*(1-minAlpha)
		faded := uint8(math.Min(math.Round(mult*255), 255))
		for x := 0; x < bounds.Dx(); x++ {
			o := img.PixOffset(x, y)
			if faded < img.Pix[o+3] {
				img.Pix[o+3] = faded
			}
		}
	}
}

// FadeHeightFor picks the fade height fraction for a game name: long
// multi-word names wrap to two lines on the tile and need a taller fade.
func FadeHeightFor(name string) float64 {
	if len(name) >= longNameThreshold && len(strings.Fields(name)) > 1 {
		return fadeHeightLong
	}
	return fadeHeightShort
}

// ForegroundFor classifies the lower third of a rendered tile, where the
// shell draws the name, as predominantly dark or bright, and returns the
// text style that contrasts with it. Transparent pixels are ignored; an
// all-transparent lower third defaults to dark text.
func ForegroundFor(img *image.NRGBA) string {
	bounds := img.Bounds()
	h := bounds.Dy()
	var dark, bright int
	for y := int(math.Round(float64(h) * 2.0 / 3.0)); y < h; y++ {
		for x := 0; x < bounds.Dx(); x++ {
			o := img.PixOffset(x, y)
			alpha := float64(img.Pix[o+3]) / 255
			if alpha <= 0.75 {
				continue
			}
			l := lightness(img.At(x, y))
			if l <= 0.5 {
				dark++
			} else {
				bright++
			}
		}
	}
	if dark > bright {
		return ForegroundLight
	}
	return ForegroundDark
}

// RenderedTiles is the output of the tile image pipeline: both renditions
// PNG-encoded plus the style for the manifest.
type RenderedTiles struct {
	Style  TileStyle
	Medium []byte
	Small  []byte
}

// RenderTiles runs the full pipeline on a decoded icon: derive style,
// produce both renditions, and optionally fade the medium tile's bottom
// edge under the name.
func RenderTiles(icon image.Image, gameName string, fadeEdge bool) (*RenderedTiles, error) {
	avg := AverageBrightness(icon)
	r, g, b := DominantColor(icon, avg)

	small := ResizeTile(icon, TileSizeSmall, pixelArtLimitSmall)
	medium := ResizeTile(icon, TileSizeMedium, pixelArtLimitMedium)

	if fadeEdge {
		FadeBottomEdge(medium, FadeHeightFor(gameName), fadeExponent, fadeFloorAlpha)
	}

	var mediumBuf, smallBuf bytes.Buffer
	if err := png.Encode(&mediumBuf, medium); err != nil {
		return nil, fmt.Errorf("failed to encode medium tile: %w", err)
	}
	if err := png.Encode(&smallBuf, small); err != nil {
		return nil, fmt.Errorf("failed to encode small tile: %w", err)
	}

	return &RenderedTiles{
		Style: TileStyle{
			BackgroundHex:  HexColor(r, g, b),
			ForegroundText: ForegroundFor(medium),
		},
		Medium: mediumBuf.Bytes(),
		Small:  smallBuf.Bytes(),
	}, nil
}

func lightness(c color.Color) float64 {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return 0
	}
	_, _, l := cf.Hsl()
	return l
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
