// Package engines contains the clip generators that turn a single word into
// audio: gtts-cli (online, MP3), Piper (offline, raw PCM), Yandex SpeechKit
// (cloud, MP3 over gRPC) and a silent mock for tests.
package engines
