package ai

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Synthesizer turns text into 16-bit mono PCM
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Speaker renders text to WAV files in the background
type Speaker struct {
	synth Synthesizer
	dir   string
	log   zerolog.Logger
	now   func() time.Time
	wg    sync.WaitGroup
}

// NewSpeaker writing into dir
func NewSpeaker(synth Synthesizer, dir string, logger zerolog.Logger) *Speaker {
	return &Speaker{
		synth: synth,
		dir:   dir,
		log:   logger.With().Str("component", "speaker").Logger(),
		now:   time.Now,
	}
}

// Speak starts rendering text and returns immediately. Errors are logged only.
func (s *Speaker) Speak(ctx context.Context, text string) {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		path, err := s.render(ctx, text)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to speak")
			return
		}

		s.log.Info().Str("path", path).Msg("speech ready")
	}()
}

// Wait for every pending Speak to finish
func (s *Speaker) Wait() {
	s.wg.Wait()
}

func (s *Speaker) render(ctx context.Context, text string) (string, error) {
	pcm, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio directory %s: %w", s.dir, err)
	}

	path := filepath.Join(s.dir, "speech-"+s.now().Format("20060102-150405.000")+".wav")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := WriteWAV(f, pcm, SpeechSampleRate); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}

	return path, nil
}

// WriteWAV wraps 16-bit little endian mono PCM in a RIFF header
func WriteWAV(w io.Writer, pcm []byte, sampleRate int) error {
	const (
		channels      = 1
		bitsPerSample = 16
	)

	blockAlign := channels * bitsPerSample / 8

	header := struct {
		ChunkID       [4]byte
		ChunkSize     uint32
		Format        [4]byte
		Subchunk1ID   [4]byte
		Subchunk1Size uint32
		AudioFormat   uint16
		NumChannels   uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		Subchunk2ID   [4]byte
		Subchunk2Size uint32
	}{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + len(pcm)),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   channels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * blockAlign),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(len(pcm)),
	}

	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}

	_, err := w.Write(pcm)
	return err
}
