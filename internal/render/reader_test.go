// SPDX-License-Identifier: EPL-2.0

package render

import (
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/ik5/dmuffler/utils"
)

func TestReader_Int16(t *testing.T) {
	t.Parallel()

	e := newEngine(t, Options{})
	e.Publish(play(constAsset(0, 0.5, 100)))

	r := NewReader(e, Int16LE, 64)

	// Odd read sizes must still produce a coherent sample stream.
	buf := make([]byte, 0, 4*64*3)
	chunk := make([]byte, 7)
	for len(buf) < cap(buf) {
		n, err := r.Read(chunk[:min(len(chunk), cap(buf)-len(buf))])
		if err != nil {
			t.Fatal(err)
		}
		buf = append(buf, chunk[:n]...)
	}

	want := utils.Float32ToInt16(0.5)
	for i := 0; i < len(buf); i += 2 {
		if got := int16(binary.LittleEndian.Uint16(buf[i:])); got != want {
			t.Fatalf("sample %d = %d, want %d", i/2, got, want)
		}
	}
}

func TestReader_Float32(t *testing.T) {
	t.Parallel()

	e := newEngine(t, Options{})
	e.Publish(play(constAsset(0, -0.25, 100)))

	r := NewReader(e, Float32LE, 32)
	buf := make([]byte, 4*2*32)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < len(buf); i += 4 {
		if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i:])); got != -0.25 {
			t.Fatalf("sample %d = %v, want -0.25", i/4, got)
		}
	}

	if n, err := r.Read(nil); n != 0 || err != nil {
		t.Errorf("Read(nil) = %d, %v", n, err)
	}
}
