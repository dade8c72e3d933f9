package notes

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/abhisek/studentai/internal/filestore"
)

// ErrNoTranscriber means voice notes are not configured.
var ErrNoTranscriber = errors.New("voice notes are not enabled")

// CreateFromAudio transcribes a recording, keeps the audio next to the
// notes and saves an AI-enhanced note that references it.
func (s *Service) CreateFromAudio(ctx context.Context, topic string, audio []byte, mimeType string) (*Saved, error) {
	if s.transcriber == nil {
		return nil, ErrNoTranscriber
	}
	if strings.TrimSpace(topic) == "" {
		return nil, ErrTopicRequired
	}

	text, err := s.transcriber.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%s_%s_voice_note%s",
		strings.TrimSuffix(FileName(topic), "_notes.txt"),
		s.now().Format("2006-01-02_15-04-05"),
		audioExt(mimeType))
	if err := filestore.WriteAtomic(filepath.Join(s.dir, "audio", name), audio); err != nil {
		return nil, fmt.Errorf("save voice recording: %w", err)
	}
	s.log.Info("voice note transcribed", "topic", topic, "audio", name, "chars", len(text))

	return s.Create(ctx, topic, fmt.Sprintf("%s (Audio: %s)", text, name), true)
}

func audioExt(mimeType string) string {
	base, _, _ := mime.ParseMediaType(mimeType)
	switch base {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/ogg":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	case "audio/flac", "audio/x-flac":
		return ".flac"
	}
	if exts, _ := mime.ExtensionsByType(base); len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
