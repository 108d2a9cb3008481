// Package audio decodes generated speech into device-format PCM clips and
// sounds them one at a time through oto/v3. MockPlayer stands in for the
// device in tests.
package audio
