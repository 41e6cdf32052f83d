package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// MinEncodableSamples is the smallest buffer worth encoding. Anything
// shorter (~85ms at 48kHz) is not a playable artifact and yields an
// Empty result instead of a container.
const MinEncodableSamples = 4096

const wavHeaderSize = 44

// WAVHeader represents the header structure of a WAV file
type WAVHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // File size - 8 bytes
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 3 for IEEE float
	NumChannels   uint16  // Number of channels
	SampleRate    uint32  // Sample rate
	ByteRate      uint32  // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16  // NumChannels * BitsPerSample / 8
	BitsPerSample uint16  // Bits per sample
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // Number of bytes in the data
}

// EncodedAudio is an immutable mono 32-bit-float PCM WAV container produced
// once per session from the captured samples.
type EncodedAudio struct {
	Data       []byte
	SampleRate int
	NumSamples int
}

// Empty reports whether the encode produced no usable audio. An Empty
// result is a legal terminal state, not an error: the session completes
// with a null audio reference.
func (e EncodedAudio) Empty() bool {
	return len(e.Data) == 0
}

// Duration returns the audio duration in seconds.
func (e EncodedAudio) Duration() float64 {
	if e.SampleRate == 0 {
		return 0
	}
	return float64(e.NumSamples) / float64(e.SampleRate)
}

// Encode converts accumulated float32 samples into a mono IEEE-float WAV
// container at the captured sample rate. It never mutates the source slice.
// Buffers below MinEncodableSamples yield an Empty result with no error.
func Encode(samples []float32, sampleRate int) (EncodedAudio, error) {
	if len(samples) < MinEncodableSamples {
		return EncodedAudio{}, nil
	}

	if sampleRate <= 0 {
		return EncodedAudio{}, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	numChannels := uint16(1)    // Mono
	bitsPerSample := uint16(32) // 32-bit IEEE float
	dataSize := uint32(len(samples) * 4)
	fileSize := uint32(wavHeaderSize-8) + dataSize

	header := WAVHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     fileSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   3, // IEEE float
		NumChannels:   numChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(numChannels) * uint32(bitsPerSample) / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(samples)*4))

	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return EncodedAudio{}, fmt.Errorf("failed to write WAV header: %w", err)
	}

	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return EncodedAudio{}, fmt.Errorf("failed to write audio data: %w", err)
	}

	return EncodedAudio{
		Data:       buf.Bytes(),
		SampleRate: sampleRate,
		NumSamples: len(samples),
	}, nil
}

// Decode decodes a mono IEEE-float WAV container back to float32 samples.
func Decode(data []byte) ([]float32, int, error) {
	if len(data) < wavHeaderSize {
		return nil, 0, fmt.Errorf("WAV data too short: need at least %d bytes, got %d", wavHeaderSize, len(data))
	}

	buf := bytes.NewReader(data)
	var header WAVHeader

	if err := binary.Read(buf, binary.LittleEndian, &header); err != nil {
		return nil, 0, fmt.Errorf("failed to read WAV header: %w", err)
	}

	if string(header.ChunkID[:]) != "RIFF" {
		return nil, 0, fmt.Errorf("invalid WAV file: missing RIFF header")
	}

	if string(header.Format[:]) != "WAVE" {
		return nil, 0, fmt.Errorf("invalid WAV file: missing WAVE format")
	}

	if string(header.Subchunk1ID[:]) != "fmt " {
		return nil, 0, fmt.Errorf("invalid WAV file: missing fmt chunk")
	}

	if string(header.Subchunk2ID[:]) != "data" {
		return nil, 0, fmt.Errorf("invalid WAV file: missing data chunk")
	}

	if header.AudioFormat != 3 {
		return nil, 0, fmt.Errorf("unsupported audio format: %d (only IEEE float is supported)", header.AudioFormat)
	}

	if header.BitsPerSample != 32 {
		return nil, 0, fmt.Errorf("unsupported bit depth: %d (only 32-bit is supported)", header.BitsPerSample)
	}

	if header.NumChannels != 1 {
		return nil, 0, fmt.Errorf("unsupported channel count: %d (only mono is supported)", header.NumChannels)
	}

	numSamples := int(header.Subchunk2Size) / 4
	if numSamples <= 0 {
		return nil, 0, fmt.Errorf("no audio data found")
	}

	samples := make([]float32, numSamples)
	if err := binary.Read(buf, binary.LittleEndian, samples); err != nil {
		return nil, 0, fmt.Errorf("failed to read audio samples: %w", err)
	}

	return samples, int(header.SampleRate), nil
}

// ValidateWAV validates a WAV container without decoding the audio data.
func ValidateWAV(data []byte) error {
	if len(data) < wavHeaderSize {
		return fmt.Errorf("WAV data too short: need at least %d bytes, got %d", wavHeaderSize, len(data))
	}

	if string(data[0:4]) != "RIFF" {
		return fmt.Errorf("invalid WAV file: missing RIFF header")
	}

	if string(data[8:12]) != "WAVE" {
		return fmt.Errorf("invalid WAV file: missing WAVE format")
	}

	if string(data[12:16]) != "fmt " {
		return fmt.Errorf("invalid WAV file: missing fmt chunk")
	}

	if string(data[36:40]) != "data" {
		return fmt.Errorf("invalid WAV file: missing data chunk")
	}

	return nil
}

// GetWAVDuration calculates the duration of a WAV container in seconds.
func GetWAVDuration(data []byte) (float64, error) {
	if err := ValidateWAV(data); err != nil {
		return 0, err
	}

	sampleRate := binary.LittleEndian.Uint32(data[24:28])
	if sampleRate == 0 {
		return 0, fmt.Errorf("invalid sample rate: 0")
	}

	bitsPerSample := binary.LittleEndian.Uint16(data[34:36])
	if bitsPerSample == 0 {
		return 0, fmt.Errorf("invalid bits per sample: 0")
	}

	dataSize := binary.LittleEndian.Uint32(data[40:44])
	numSamples := dataSize / uint32(bitsPerSample/8)

	return float64(numSamples) / float64(sampleRate), nil
}
