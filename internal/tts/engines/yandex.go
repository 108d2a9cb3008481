package engines

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"

	ytts "github.com/yandex-cloud/go-genproto/yandex/cloud/ai/tts/v3"

	"github.com/dgnsrekt/spotlight/internal/tts"
	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

// YandexEndpoint is the SpeechKit v3 gRPC endpoint.
const YandexEndpoint = "tts.api.cloud.yandex.net:443"

// defaultYandexVoices picks a voice per document language.
var defaultYandexVoices = map[ttypes.Language]string{
	ttypes.LanguageEnglish:   "john",
	ttypes.LanguageBulgarian: "marina",
}

// YandexConfig holds credentials and synthesis options for SpeechKit.
type YandexConfig struct {
	APIKey   string
	FolderID string

	// Endpoint defaults to YandexEndpoint.
	Endpoint string

	// Voice, when set, is used for every language.
	Voice string

	// Speed defaults to 1.0.
	Speed float64

	// Model defaults to "general".
	Model string
}

// LoadYandexConfig reads YANDEX_API_KEY and YANDEX_FOLDER_ID from the
// environment after loading any of the given .env files that exist.
func LoadYandexConfig(envFiles ...string) (YandexConfig, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return YandexConfig{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := YandexConfig{
		APIKey:   os.Getenv("YANDEX_API_KEY"),
		FolderID: os.Getenv("YANDEX_FOLDER_ID"),
	}
	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("%w: YANDEX_API_KEY is not set", tts.ErrMissingCredentials)
	}
	return cfg, nil
}

// YandexEngine streams MP3 clips from Yandex SpeechKit over gRPC.
type YandexEngine struct {
	client ytts.SynthesizerClient
	conn   *grpc.ClientConn
	config YandexConfig
}

// NewYandexEngine creates a SpeechKit client. The connection is established
// lazily on the first request.
func NewYandexEngine(config YandexConfig) (*YandexEngine, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: yandex api key", tts.ErrMissingCredentials)
	}
	if config.Endpoint == "" {
		config.Endpoint = YandexEndpoint
	}
	if config.Speed <= 0 {
		config.Speed = 1.0
	}
	if config.Model == "" {
		config.Model = "general"
	}

	creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	conn, err := grpc.NewClient(config.Endpoint, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to TTS service: %w", err)
	}

	return &YandexEngine{
		client: ytts.NewSynthesizerClient(conn),
		conn:   conn,
		config: config,
	}, nil
}

// Name identifies the engine in cache keys.
func (e *YandexEngine) Name() string {
	voice := e.config.Voice
	if voice == "" {
		voice = "auto"
	}
	return fmt.Sprintf("yandex-%s-%.2f", voice, e.config.Speed)
}

// Generate synthesizes text and collects the streamed MP3 chunks.
func (e *YandexEngine) Generate(ctx context.Context, text string, lang ttypes.Language) (*ttypes.Audio, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, tts.ErrEmptyText
	}

	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Api-Key "+e.config.APIKey)
	if e.config.FolderID != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "x-folder-id", e.config.FolderID)
	}

	stream, err := e.client.UtteranceSynthesis(ctx, e.buildRequest(text, lang))
	if err != nil {
		return nil, tts.NewTTSError(tts.ErrorCodeEngineFailure, "failed to start synthesis", err)
	}

	var buf bytes.Buffer
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, tts.NewTTSError(tts.ErrorCodeEngineFailure, "failed to receive audio data", err)
		}
		if chunk := resp.GetAudioChunk(); chunk != nil {
			buf.Write(chunk.GetData())
		}
	}

	if buf.Len() == 0 {
		return nil, tts.NewTTSError(tts.ErrorCodeEngineFailure, "empty synthesis response", nil)
	}
	log.Debug("yandex clip generated", "text", text, "lang", lang, "bytes", buf.Len())
	return &ttypes.Audio{Data: buf.Bytes(), Format: ttypes.FormatMP3}, nil
}

// voiceFor returns the configured voice, or the default for lang.
func (e *YandexEngine) voiceFor(lang ttypes.Language) string {
	if e.config.Voice != "" {
		return e.config.Voice
	}
	if v, ok := defaultYandexVoices[lang]; ok {
		return v
	}
	return defaultYandexVoices[ttypes.LanguageEnglish]
}

func (e *YandexEngine) buildRequest(text string, lang ttypes.Language) *ytts.UtteranceSynthesisRequest {
	req := &ytts.UtteranceSynthesisRequest{}
	req.SetModel(e.config.Model)
	req.SetText(text)

	voiceHint := &ytts.Hints{}
	voiceHint.SetVoice(e.voiceFor(lang))
	speedHint := &ytts.Hints{}
	speedHint.SetSpeed(e.config.Speed)
	req.SetHints([]*ytts.Hints{voiceHint, speedHint})

	containerAudio := &ytts.ContainerAudio{}
	containerAudio.SetContainerAudioType(ytts.ContainerAudio_MP3)
	audioSpec := &ytts.AudioFormatOptions{}
	audioSpec.SetContainerAudio(containerAudio)
	req.SetOutputAudioSpec(audioSpec)

	req.SetLoudnessNormalizationType(ytts.UtteranceSynthesisRequest_LUFS)
	return req
}

// Close closes the gRPC connection.
func (e *YandexEngine) Close() error {
	return e.conn.Close()
}

var _ ttypes.ClipGenerator = (*YandexEngine)(nil)
