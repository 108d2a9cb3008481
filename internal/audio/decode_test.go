package audio

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/spotlight/internal/tts"
	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

// pcmOf builds 16-bit PCM with one value per frame repeated across channels.
func pcmOf(channels int, values ...int16) []byte {
	out := make([]byte, 0, len(values)*channels*2)
	for _, v := range values {
		for ch := 0; ch < channels; ch++ {
			out = binary.LittleEndian.AppendUint16(out, uint16(v))
		}
	}
	return out
}

func TestDecoder_PCMPassthrough(t *testing.T) {
	d := NewDecoder(Format{SampleRate: 8000, Channels: 1})
	data := pcmOf(1, make([]int16, 8000)...)

	clip, err := d.Decode(&ttypes.Audio{Data: data, Format: ttypes.FormatPCM, SampleRate: 8000, Channels: 1})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(clip.PCM) != len(data) {
		t.Errorf("len(PCM) = %d, want %d", len(clip.PCM), len(data))
	}
	if clip.Duration != time.Second {
		t.Errorf("Duration = %v, want 1s", clip.Duration)
	}
}

func TestDecoder_Resample(t *testing.T) {
	tests := []struct {
		name       string
		src, dst   Format
		frames     int
		wantFrames int
		wantDur    time.Duration
	}{
		{"mono 8k to stereo 24k", Format{8000, 1}, Format{24000, 2}, 800, 2400, 100 * time.Millisecond},
		{"stereo 24k to mono 8k", Format{24000, 2}, Format{8000, 1}, 2400, 800, 100 * time.Millisecond},
		{"mono 22050 to mono 44100", Format{22050, 1}, Format{44100, 1}, 2205, 4410, 100 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(tt.dst)
			data := pcmOf(tt.src.Channels, make([]int16, tt.frames)...)
			clip, err := d.Decode(&ttypes.Audio{
				Data: data, Format: ttypes.FormatPCM,
				SampleRate: tt.src.SampleRate, Channels: tt.src.Channels,
			})
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got := len(clip.PCM) / (tt.dst.Channels * 2); got != tt.wantFrames {
				t.Errorf("frames = %d, want %d", got, tt.wantFrames)
			}
			if clip.Duration != tt.wantDur {
				t.Errorf("Duration = %v, want %v", clip.Duration, tt.wantDur)
			}
			if clip.SampleRate != tt.dst.SampleRate || clip.Channels != tt.dst.Channels {
				t.Errorf("clip format = %d x%d", clip.SampleRate, clip.Channels)
			}
		})
	}
}

func TestConvert_ChannelMapping(t *testing.T) {
	// Stereo frame (100, 300) averages to 200 in mono.
	stereo := binary.LittleEndian.AppendUint16(nil, 100)
	stereo = binary.LittleEndian.AppendUint16(stereo, 300)
	mono := convert(stereo, Format{8000, 2}, Format{8000, 1})
	if got := int16(binary.LittleEndian.Uint16(mono)); got != 200 {
		t.Errorf("downmix = %d, want 200", got)
	}

	// Mono duplicates into both channels.
	up := convert(pcmOf(1, -42), Format{8000, 1}, Format{8000, 2})
	if len(up) != 4 {
		t.Fatalf("len = %d, want 4", len(up))
	}
	for ch := 0; ch < 2; ch++ {
		if got := int16(binary.LittleEndian.Uint16(up[ch*2:])); got != -42 {
			t.Errorf("channel %d = %d, want -42", ch, got)
		}
	}
}

func TestDecoder_Errors(t *testing.T) {
	d := NewDecoder(DefaultFormat)

	tests := []struct {
		name  string
		audio *ttypes.Audio
	}{
		{"nil", nil},
		{"empty", &ttypes.Audio{Format: ttypes.FormatPCM, SampleRate: 8000, Channels: 1}},
		{"pcm without header", &ttypes.Audio{Data: []byte{0, 0}, Format: ttypes.FormatPCM}},
		{"unknown format", &ttypes.Audio{Data: []byte{0, 0}, Format: ttypes.AudioFormat(9)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := d.Decode(tt.audio); !errors.Is(err, tts.ErrUnsupportedAudio) {
				t.Errorf("expected ErrUnsupportedAudio, got %v", err)
			}
		})
	}

	_, err := d.Decode(&ttypes.Audio{Data: []byte("not an mp3 stream"), Format: ttypes.FormatMP3})
	var te *tts.TTSError
	if !errors.As(err, &te) || te.Code != tts.ErrorCodeAudioFormat {
		t.Errorf("expected AUDIO_FORMAT error for garbage mp3, got %v", err)
	}
}
