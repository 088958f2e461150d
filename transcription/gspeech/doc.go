// Package gspeech provides transcription via the Google Web Speech
// recognize endpoint. Calls are rate limited and transient failures
// are retried with exponential backoff.
package gspeech
