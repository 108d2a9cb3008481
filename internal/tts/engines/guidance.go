package engines

import (
	"errors"
	"strings"

	"github.com/dgnsrekt/spotlight/internal/tts"
)

// Guidance returns setup help for an engine that failed to start. It is
// printed below the error by the CLI.
func Guidance(engine string, err error) string {
	switch strings.ToLower(engine) {
	case EngineGTTS, "":
		if errors.Is(err, tts.ErrEngineNotAvailable) {
			return gttsInstallGuidance
		}
		return gttsRuntimeGuidance

	case EnginePiper:
		if errors.Is(err, tts.ErrEngineNotAvailable) {
			return piperInstallGuidance
		}
		return piperModelGuidance

	case EngineYandex:
		if errors.Is(err, tts.ErrMissingCredentials) {
			return yandexCredentialsGuidance
		}
		return "Check the Yandex SpeechKit endpoint and your network connection."

	default:
		return "Supported engines: gtts, piper, yandex."
	}
}

const gttsInstallGuidance = `gTTS (Google Text-to-Speech) is not installed. To install:

1. Install via pip:
   pip install gtts

   # Or with pipx (recommended):
   pipx install gtts

2. Verify installation:
   gtts-cli --help

Note: gTTS requires an internet connection to function.`

const gttsRuntimeGuidance = `gTTS synthesis failed. This could indicate:

1. No internet connection - gTTS requires online access
2. Google's TTS service is unavailable
3. Rate limiting from Google

Try testing manually:
  gtts-cli "Hello world" -l en -o test.mp3`

const piperInstallGuidance = `Piper TTS is not installed. To install:

1. Download Piper binary from: https://github.com/rhasspy/piper/releases
2. Extract and add to PATH
3. Download a voice model per language from:
   https://github.com/rhasspy/piper/blob/master/VOICES.md
4. Configure piper.models.en and piper.models.bg in your config file`

const piperModelGuidance = `Piper model is not usable. Please check:

1. piper.models.en / piper.models.bg point at existing .onnx files
2. The matching .onnx.json file sits next to each model
3. Try running piper manually:
   echo "Hello world" | piper --model /path/to/model.onnx --output-raw`

const yandexCredentialsGuidance = `Yandex SpeechKit needs credentials. Set them in the environment or
in a .env file in the working directory:

  YANDEX_API_KEY=<api key>
  YANDEX_FOLDER_ID=<folder id>`
