package audio

import (
	"os"

	gowav "github.com/go-audio/wav"
	goaudio "github.com/go-audio/audio"

	"github.com/kbukum/scribekit/errors"
)

// LoadWAV decodes a PCM WAV file into a Buffer.
func LoadWAV(path string) (*Buffer, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.DecodeFailed(path, err)
	}
	defer fh.Close()

	d := gowav.NewDecoder(fh)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, errors.DecodeFailed(path, err)
	}
	if buf.Format == nil || len(buf.Data) == 0 {
		return nil, errors.DecodeFailed(path, nil)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(d.BitDepth)
	}

	out, err := NewBuffer(buf.Data, buf.Format.SampleRate, buf.Format.NumChannels, bitDepth)
	if err != nil {
		return nil, errors.DecodeFailed(path, err)
	}
	return out, nil
}

// WriteWAV encodes a Buffer as a PCM WAV file. Used to stage chunk audio
// for transcription backends that consume files.
func WriteWAV(path string, b *Buffer) error {
	fh, err := os.Create(path)
	if err != nil {
		return errors.StagingFailed(err)
	}
	defer fh.Close()

	enc := gowav.NewEncoder(fh, b.SampleRate, b.BitDepth, b.Channels, 1)
	intBuf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: b.Channels,
			SampleRate:  b.SampleRate,
		},
		Data:           b.Samples,
		SourceBitDepth: b.BitDepth,
	}
	if err := enc.Write(intBuf); err != nil {
		enc.Close()
		return errors.StagingFailed(err)
	}
	if err := enc.Close(); err != nil {
		return errors.StagingFailed(err)
	}
	return nil
}
