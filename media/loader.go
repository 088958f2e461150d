package media

import (
	"os"

	"github.com/kbukum/scribekit/audio"
	"github.com/kbukum/scribekit/errors"
)

// Load decodes a local WAV file into an audio buffer.
func Load(path string) (*audio.Buffer, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.DecodeFailed(path, err)
	}
	if info.IsDir() {
		return nil, errors.InvalidInput("path", "is a directory")
	}
	return audio.LoadWAV(path)
}
