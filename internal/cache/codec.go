package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

// storedAudio is the persisted form of generator output.
type storedAudio struct {
	Format     int
	SampleRate int
	Channels   int
	Data       []byte
}

func encodeAudio(a *ttypes.Audio) ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(storedAudio{
		Format:     int(a.Format),
		SampleRate: a.SampleRate,
		Channels:   a.Channels,
		Data:       a.Data,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeAudio(data []byte) (*ttypes.Audio, error) {
	var s storedAudio
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
	}
	return &ttypes.Audio{
		Data:       s.Data,
		Format:     ttypes.AudioFormat(s.Format),
		SampleRate: s.SampleRate,
		Channels:   s.Channels,
	}, nil
}
