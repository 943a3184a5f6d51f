package host

// AudioBuffer holds non-interleaved 32-bit float channels of a fixed number
// of frames. It cannot be resized.
type AudioBuffer struct {
	channels [][]float32
	frames   int
}

// NewAudioBuffer allocates channels*frames zeroed samples in one block.
func NewAudioBuffer(channels, frames int) *AudioBuffer {
	channels = max(channels, 0)
	frames = max(frames, 0)
	data := make([]float32, channels*frames)
	b := &AudioBuffer{
		channels: make([][]float32, channels),
		frames:   frames,
	}
	for ch := range b.channels {
		b.channels[ch] = data[ch*frames : (ch+1)*frames : (ch+1)*frames]
	}
	return b
}

// Channel returns the samples of channel ch.
func (b *AudioBuffer) Channel(ch int) []float32 {
	return b.channels[ch]
}

// Channels returns all channels. The slice is shared with the buffer.
func (b *AudioBuffer) Channels() [][]float32 {
	return b.channels
}

func (b *AudioBuffer) NumChannels() int {
	if b == nil {
		return 0
	}
	return len(b.channels)
}

func (b *AudioBuffer) NumFrames() int {
	if b == nil {
		return 0
	}
	return b.frames
}

// Clear sets every sample to zero.
func (b *AudioBuffer) Clear() {
	for _, ch := range b.channels {
		clear(ch)
	}
}
