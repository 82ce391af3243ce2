package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync/atomic"
)

// VolumeControl scales s16le PCM read through it. The level may change while playing.
type VolumeControl struct {
	src   io.Reader
	level atomic.Int32
	held  []byte
}

// NewVolumeControl wraps a PCM reader at level percent (0-200)
func NewVolumeControl(src io.Reader, level int) *VolumeControl {
	v := &VolumeControl{src: src, held: make([]byte, 0, 1)}
	v.SetLevel(level)
	return v
}

// SetLevel changes the level, clamped to 0-200
func (v *VolumeControl) SetLevel(level int) {
	v.level.Store(int32(min(max(level, 0), 200)))
}

// Level returns the current level
func (v *VolumeControl) Level() int {
	return int(v.level.Load())
}

func (v *VolumeControl) Read(p []byte) (int, error) {
	if len(p) < 2 {
		return 0, io.ErrShortBuffer
	}

	off := copy(p, v.held)
	v.held = v.held[:0]

	n, err := v.src.Read(p[off:])
	n += off

	// Hold back half a sample until the rest arrives
	if n%2 == 1 && err == nil {
		v.held = append(v.held, p[n-1])
		n--
	}

	scalePCM(p[:n&^1], v.level.Load())
	return n, err
}

func scalePCM(b []byte, level int32) {
	if level == 100 {
		return
	}
	for i := 0; i+1 < len(b); i += 2 {
		s := int32(int16(binary.LittleEndian.Uint16(b[i:]))) * level / 100
		s = min(max(s, math.MinInt16), math.MaxInt16)
		binary.LittleEndian.PutUint16(b[i:], uint16(int16(s)))
	}
}
