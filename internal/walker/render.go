package walker

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"sort"
)

const (
	marginFraction    = 0.025
	crosshairFraction = 0.07
)

var backgroundColor = rgb(0x051f39)

var palette = []color.RGBA{
	rgb(0x2B2567), rgb(0x3D2473), rgb(0x4A2480), rgb(0x5B2B8F), rgb(0x762F97),
	rgb(0x933197), rgb(0xAF3395), rgb(0xC53A9D), rgb(0xD14B9E), rgb(0xE25A91),
	rgb(0xEF6B81), rgb(0xF87D78), rgb(0xFF8E80), rgb(0xFFA792),
}

func rgb(c uint32) color.RGBA {
	return color.RGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 0xFF}
}

// heatmap is a cropped, equalized view of the grid with values in [0, 1]
type heatmap struct {
	values           [][]float32
	originX, originY int
}

// equalize maps each visited cell to the share of all visits made to cells
// visited at most as often, so sparse and dense regions both stay visible.
func (s *Simulation) equalize() [][]float32 {
	histogram := make(map[uint64]uint64)
	for _, v := range s.visits {
		if v > 0 {
			histogram[v]++
		}
	}

	normalized := make([][]float32, gridSize)
	for y := range normalized {
		normalized[y] = make([]float32, gridSize)
	}
	if len(histogram) == 0 {
		return normalized
	}

	keys := make([]uint64, 0, len(histogram))
	var totalMass float64
	for k, n := range histogram {
		keys = append(keys, k)
		totalMass += float64(k) * float64(n)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	cdf := make(map[uint64]float32, len(keys))
	var cumulative float64
	for _, k := range keys {
		cumulative += float64(k) * float64(histogram[k])
		cdf[k] = float32(cumulative / totalMass)
	}

	for y := 0; y < gridSize; y++ {
		for x := 0; x < gridSize; x++ {
			if v := s.visitsAt(x, y); v > 0 {
				normalized[y][x] = cdf[v]
			}
		}
	}
	return normalized
}

// heatmap crops an ImageSize window centred on the visited region
func (s *Simulation) heatmap() heatmap {
	normalized := s.equalize()
	size := float64(ImageSize)
	margin := int(marginFraction * size)

	x0 := occupiedWindowStart(normalized, margin, true)
	y0 := occupiedWindowStart(normalized, margin, false)

	cropped := make([][]float32, ImageSize)
	for y := range cropped {
		cropped[y] = make([]float32, ImageSize)
		copy(cropped[y], normalized[y0+y][x0:x0+ImageSize])
	}
	return heatmap{values: cropped, originX: gridHalfSize - x0, originY: gridHalfSize - y0}
}

func occupiedWindowStart(values [][]float32, margin int, horizontal bool) int {
	lo, hi := math.MaxInt, math.MinInt
	for a := 0; a < gridSize; a++ {
		for b := 0; b < gridSize; b++ {
			v := values[a][b]
			if horizontal {
				v = values[b][a]
			}
			if v == 0 {
				continue
			}
			lo = min(lo, a)
			hi = max(hi, a)
		}
	}

	if lo >= hi {
		return (gridSize - ImageSize) / 2
	}
	start := (lo+hi)/2 - ImageSize/2
	return max(margin, min(start, gridSize-margin-ImageSize))
}

// drawCrosshair brightens the axes through the origin and darkens the rows
// and columns beside them
func (h *heatmap) drawCrosshair() {
	size := float64(ImageSize)
	halfLength := int(crosshairFraction * size / 2)
	ox, oy := h.originX, h.originY

	for offset := 0; offset <= halfLength; offset++ {
		t := float32(offset) / float32(halfLength+1)
		intensity := (1 - t*t) / 2
		for _, p := range [][2]int{
			{ox + offset, oy + 1}, {ox + offset, oy - 1}, {ox + 1, oy + offset}, {ox - 1, oy + offset},
			{ox - offset, oy + 1}, {ox - offset, oy - 1}, {ox + 1, oy - offset}, {ox - 1, oy - offset},
		} {
			if p[0] == ox || p[1] == oy {
				continue
			}
			h.adjust(p[0], p[1], -intensity)
		}
	}

	for offset := 0; offset <= halfLength; offset++ {
		t := float32(offset) / float32(halfLength+1)
		intensity := 1 - t*t
		h.adjust(ox+offset, oy, intensity)
		h.adjust(ox, oy+offset, intensity)
		h.adjust(ox-offset, oy, intensity)
		h.adjust(ox, oy-offset, intensity)
	}
}

func (h *heatmap) adjust(x, y int, delta float32) {
	if x < 0 || x >= ImageSize || y < 0 || y >= ImageSize {
		return
	}
	h.values[y][x] = max(0, min(1, h.values[y][x]+delta))
}

// Render draws the heatmap with the origin crosshair.
func (s *Simulation) Render() *image.RGBA {
	h := s.heatmap()
	h.drawCrosshair()

	img := image.NewRGBA(image.Rect(0, 0, ImageSize, ImageSize))
	top := len(palette) - 1
	for y := 0; y < ImageSize; y++ {
		for x := 0; x < ImageSize; x++ {
			v := h.values[y][x]
			if v == 0 {
				img.SetRGBA(x, y, backgroundColor)
				continue
			}
			idx := int(math.Round(float64(v) * float64(top)))
			img.SetRGBA(x, y, palette[max(0, min(idx, top))])
		}
	}
	return img
}

// WritePNG encodes the rendered heatmap.
func (s *Simulation) WritePNG(w io.Writer) error {
	return png.Encode(w, s.Render())
}

// SavePNG writes the rendered heatmap to path.
func (s *Simulation) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := s.WritePNG(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
