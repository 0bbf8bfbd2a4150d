package video

const fifoCapacity = 16

type paletteSource uint8

const (
	sourceBG paletteSource = iota
	sourceOBP0
	sourceOBP1
)

// pixel is a FIFO entry. The background FIFO only uses color; sprite
// entries with color 0 are transparent.
type pixel struct {
	color      uint8
	source     paletteSource
	bgPriority bool
}

// pixelFIFO is a fixed size ring of pixels.
type pixelFIFO struct {
	buf  [fifoCapacity]pixel
	head int
	size int
}

func (f *pixelFIFO) clear() {
	f.head, f.size = 0, 0
}

func (f *pixelFIFO) len() int {
	return f.size
}

func (f *pixelFIFO) push(p pixel) {
	if f.size == fifoCapacity {
		panic("video: pixel FIFO overflow")
	}
	f.buf[(f.head+f.size)%fifoCapacity] = p
	f.size++
}

func (f *pixelFIFO) pop() pixel {
	p := f.buf[f.head]
	f.head = (f.head + 1) % fifoCapacity
	f.size--
	return p
}

// at returns the i-th pixel from the front.
func (f *pixelFIFO) at(i int) *pixel {
	return &f.buf[(f.head+i)%fifoCapacity]
}
