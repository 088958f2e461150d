// Package logger provides structured logging for the transcription pipeline
// using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component-scoped loggers with structured fields.
// Default output is stderr so transcript text on stdout stays clean.
//
// # Usage
//
//	log := logger.Get("pipeline")
//	log.Info("chunk transcribed", logger.Fields("chunk", 3, "chunks", 12))
package logger
