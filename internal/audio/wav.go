package audio

import (
	"encoding/binary"
	"io"
	"math"
)

// WriteWAV writes samples as a mono 16-bit PCM RIFF stream. Samples are clipped to [-1, 1].
func WriteWAV(w io.Writer, samples []float32, rate int) error {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	blockAlign := channels * bitsPerSample / 8
	dataLen := uint32(len(samples) * blockAlign)

	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(36) + dataLen,
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16),
		uint16(1), // PCM
		uint16(channels),
		uint32(rate),
		uint32(rate * blockAlign),
		uint16(blockAlign),
		uint16(bitsPerSample),
		[4]byte{'d', 'a', 't', 'a'},
		dataLen,
	}
	for _, field := range header {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			return err
		}
	}

	pcm := make([]int16, len(samples))
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		pcm[i] = int16(math.Round(v * math.MaxInt16))
	}
	return binary.Write(w, binary.LittleEndian, pcm)
}
