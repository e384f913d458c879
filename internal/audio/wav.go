package audio

import (
	"bytes"
	"encoding/binary"
	"time"
)

// Output format of every assembled file. Fragments are assumed to already
// be in this format; nothing is resampled.
const (
	SampleRate    = 24000
	Channels      = 1
	BitsPerSample = 16

	// HeaderSize is the size of the canonical PCM WAV header
	HeaderSize = 44

	// MIMEType is the content type of assembled audio
	MIMEType = "audio/wav"
)

var (
	riffTag = []byte("RIFF")
	waveTag = []byte("WAVE")
	fmtTag  = []byte("fmt ")
	dataTag = []byte("data")
)

// riffMagic is "RIFF" read as a big-endian uint32
const riffMagic = 0x52494646

// IsContainer reports whether fragment starts with the RIFF signature
func IsContainer(fragment []byte) bool {
	if len(fragment) < 4 {
		return false
	}
	return binary.BigEndian.Uint32(fragment[:4]) == riffMagic
}

// SampleRegion returns the PCM payload of a fragment. Bare fragments are
// returned whole. For containers the first "data" tag is located by a
// byte scan and the payload starts after the tag and its 4-byte length;
// without a tag the canonical 44-byte header is assumed.
func SampleRegion(fragment []byte) []byte {
	if !IsContainer(fragment) {
		return fragment
	}

	// A tag occupying the final 4 bytes is not a match and falls back to
	// the 44-byte header.
	offset := HeaderSize
	if idx := bytes.Index(fragment[:len(fragment)-1], dataTag); idx >= 0 {
		offset = idx + 8
	}
	if offset >= len(fragment) {
		return nil
	}
	return fragment[offset:]
}

// Header builds a canonical 44-byte header for dataLen bytes of PCM in the
// fixed output format
func Header(dataLen int) []byte {
	const (
		blockAlign = Channels * BitsPerSample / 8
		byteRate   = SampleRate * blockAlign
	)

	h := make([]byte, HeaderSize)
	le := binary.LittleEndian

	// RIFF header
	copy(h[0:4], riffTag)
	le.PutUint32(h[4:8], uint32(36+dataLen))
	copy(h[8:12], waveTag)

	// fmt subchunk
	copy(h[12:16], fmtTag)
	le.PutUint32(h[16:20], 16) // Subchunk1Size for PCM
	le.PutUint16(h[20:22], 1)  // AudioFormat (1 = PCM)
	le.PutUint16(h[22:24], Channels)
	le.PutUint32(h[24:28], SampleRate)
	le.PutUint32(h[28:32], byteRate)
	le.PutUint16(h[32:34], blockAlign)
	le.PutUint16(h[34:36], BitsPerSample)

	// data subchunk
	copy(h[36:40], dataTag)
	le.PutUint32(h[40:44], uint32(dataLen))

	return h
}

// Assemble joins fragments in order into one WAV file. Container headers
// are stripped and a single fresh header sized for the combined payload is
// written. No fragments yields a header with a zero data length.
func Assemble(fragments [][]byte) []byte {
	regions := make([][]byte, len(fragments))
	total := 0
	for i, f := range fragments {
		regions[i] = SampleRegion(f)
		total += len(regions[i])
	}

	out := make([]byte, 0, HeaderSize+total)
	out = append(out, Header(total)...)
	for _, r := range regions {
		out = append(out, r...)
	}
	return out
}

// EnsureContainer returns fragment unchanged when it is already a
// container, otherwise wraps it in a fresh header
func EnsureContainer(fragment []byte) []byte {
	if IsContainer(fragment) {
		return fragment
	}
	return Assemble([][]byte{fragment})
}

// DataLength reads the declared data length of a canonical header
func DataLength(wav []byte) (int, bool) {
	if len(wav) < HeaderSize || !IsContainer(wav) || !bytes.Equal(wav[36:40], dataTag) {
		return 0, false
	}
	return int(binary.LittleEndian.Uint32(wav[40:44])), true
}

// Duration is the playback length of dataLen bytes of PCM in the output format
func Duration(dataLen int) time.Duration {
	const bytesPerSecond = SampleRate * Channels * BitsPerSample / 8
	return time.Duration(dataLen) * time.Second / bytesPerSecond
}
