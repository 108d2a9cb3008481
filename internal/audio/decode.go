package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/hajimehoshi/go-mp3"

	"github.com/dgnsrekt/spotlight/internal/tts"
	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

// Format is the PCM layout every clip is converted to before playback.
type Format struct {
	SampleRate int
	Channels   int
}

// DefaultFormat matches gTTS output as decoded by go-mp3.
var DefaultFormat = Format{SampleRate: 24000, Channels: 2}

// bytesPerFrame returns the size of one sample across all channels.
func (f Format) bytesPerFrame() int {
	return f.Channels * 2
}

// Duration returns how long n bytes of PCM last in this format.
func (f Format) Duration(n int) time.Duration {
	frames := n / f.bytesPerFrame()
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// Decoder converts generator output into clips in a fixed device format.
type Decoder struct {
	format Format
}

// NewDecoder creates a decoder producing clips in format.
func NewDecoder(format Format) *Decoder {
	return &Decoder{format: format}
}

// Decode materializes a. MP3 is decoded with go-mp3; PCM is taken as is.
// Either is then resampled and channel-mapped to the decoder format.
func (d *Decoder) Decode(a *ttypes.Audio) (*ttypes.Clip, error) {
	if a == nil || len(a.Data) == 0 {
		return nil, fmt.Errorf("%w: empty audio", tts.ErrUnsupportedAudio)
	}

	var (
		pcm []byte
		src Format
	)
	switch a.Format {
	case ttypes.FormatMP3:
		dec, err := mp3.NewDecoder(bytes.NewReader(a.Data))
		if err != nil {
			return nil, tts.NewTTSError(tts.ErrorCodeAudioFormat, "invalid mp3 stream", err)
		}
		pcm, err = io.ReadAll(dec)
		if err != nil {
			return nil, tts.NewTTSError(tts.ErrorCodeAudioFormat, "mp3 decode failed", err)
		}
		// go-mp3 always produces 16-bit stereo.
		src = Format{SampleRate: dec.SampleRate(), Channels: 2}

	case ttypes.FormatPCM:
		if a.SampleRate <= 0 || a.Channels <= 0 {
			return nil, fmt.Errorf("%w: pcm without sample rate or channels", tts.ErrUnsupportedAudio)
		}
		pcm = a.Data
		src = Format{SampleRate: a.SampleRate, Channels: a.Channels}

	default:
		return nil, fmt.Errorf("%w: %s", tts.ErrUnsupportedAudio, a.Format)
	}

	out := convert(pcm, src, d.format)
	return &ttypes.Clip{
		PCM:        out,
		SampleRate: d.format.SampleRate,
		Channels:   d.format.Channels,
		Duration:   d.format.Duration(len(out)),
	}, nil
}

// convert resamples 16-bit little endian PCM from src to dst with linear
// interpolation and maps channels by averaging or duplicating.
func convert(pcm []byte, src, dst Format) []byte {
	frames := len(pcm) / src.bytesPerFrame()
	if src == dst {
		return pcm[:frames*src.bytesPerFrame()]
	}
	if frames == 0 {
		return nil
	}

	sample := func(frame, ch int) float64 {
		off := frame*src.bytesPerFrame() + ch*2
		return float64(int16(binary.LittleEndian.Uint16(pcm[off:])))
	}

	// frameAt returns the source frame at fractional position pos mixed
	// down to mono or kept per channel.
	mixed := func(frame, outCh int) float64 {
		switch {
		case src.Channels == dst.Channels:
			return sample(frame, outCh)
		case dst.Channels == 1:
			var sum float64
			for ch := 0; ch < src.Channels; ch++ {
				sum += sample(frame, ch)
			}
			return sum / float64(src.Channels)
		default:
			return sample(frame, min(outCh, src.Channels-1))
		}
	}

	outFrames := int(int64(frames) * int64(dst.SampleRate) / int64(src.SampleRate))
	out := make([]byte, outFrames*dst.bytesPerFrame())
	ratio := float64(src.SampleRate) / float64(dst.SampleRate)

	for i := 0; i < outFrames; i++ {
		pos := float64(i) * ratio
		f0 := int(pos)
		f1 := min(f0+1, frames-1)
		frac := pos - float64(f0)

		for ch := 0; ch < dst.Channels; ch++ {
			v := mixed(f0, ch)*(1-frac) + mixed(f1, ch)*frac
			off := i*dst.bytesPerFrame() + ch*2
			binary.LittleEndian.PutUint16(out[off:], uint16(int16(clamp16(v))))
		}
	}
	return out
}

func clamp16(v float64) float64 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return v
}
