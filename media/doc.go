// Package media acquires source audio: downloading a video URL's audio
// track via yt-dlp, decoding WAV files into buffers, and managing the
// per-run scratch directory both need.
package media
