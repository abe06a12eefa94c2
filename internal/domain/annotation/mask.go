package annotation

import "fmt"

// Mask is a binary raster aligned to the owning image bounds.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// NewMask allocates an all-background mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Bits: make([]bool, width*height)}
}

// At reports whether the pixel at (x, y) is foreground.
func (m *Mask) At(x, y int) bool {
	return m.Bits[y*m.Width+x]
}

// Set marks the pixel at (x, y).
func (m *Mask) Set(x, y int, fg bool) {
	m.Bits[y*m.Width+x] = fg
}

// Area counts foreground pixels.
func (m *Mask) Area() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// RLE encodes the mask as row-major run lengths alternating background and
// foreground, starting with background. An all-foreground mask therefore
// begins with a zero-length background run.
func (m *Mask) RLE() []int {
	var counts []int
	cur := false
	run := 0
	for _, b := range m.Bits {
		if b == cur {
			run++
			continue
		}
		counts = append(counts, run)
		cur = b
		run = 1
	}
	counts = append(counts, run)
	return counts
}

// MaskFromRLE rebuilds a mask from row-major alternating run lengths.
func MaskFromRLE(width, height int, counts []int) (*Mask, error) {
	m := NewMask(width, height)
	pos := 0
	fg := false
	for _, c := range counts {
		if c < 0 {
			return nil, fmt.Errorf("mask rle: negative run length %d", c)
		}
		if pos+c > len(m.Bits) {
			return nil, fmt.Errorf("mask rle: runs exceed %dx%d raster", width, height)
		}
		for i := 0; i < c; i++ {
			m.Bits[pos+i] = fg
		}
		pos += c
		fg = !fg
	}
	if pos != len(m.Bits) {
		return nil, fmt.Errorf("mask rle: runs cover %d of %d pixels", pos, len(m.Bits))
	}
	return m, nil
}
