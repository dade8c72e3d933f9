// Package transcribe turns recorded voice notes into text.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"github.com/abhisek/studentai/internal/llm"
	"github.com/abhisek/studentai/internal/logger"
)

// ErrNoSpeech means the recording held no recognizable speech.
var ErrNoSpeech = errors.New("could not understand speech")

const recognizeTimeout = 2 * time.Minute

// Transcriber converts audio bytes to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

// GCPTranscriber uses Cloud Speech-to-Text synchronous recognition, which
// suits clips up to about a minute.
type GCPTranscriber struct {
	recognize    recognizeFunc
	closeFn      func() error
	languageCode string
	log          *logger.Logger
}

// NewGCPTranscriber dials Cloud Speech. Credentials come from
// GOOGLE_APPLICATION_CREDENTIALS_JSON when set, then the usual application
// default lookup.
func NewGCPTranscriber(ctx context.Context, languageCode string, log *logger.Logger) (*GCPTranscriber, error) {
	var opts []option.ClientOption
	if creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	t := newGCPTranscriber(func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return c.Recognize(ctx, req)
	}, languageCode, log)
	t.closeFn = c.Close
	return t, nil
}

func newGCPTranscriber(fn recognizeFunc, languageCode string, log *logger.Logger) *GCPTranscriber {
	if languageCode == "" {
		languageCode = "en-US"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &GCPTranscriber{
		recognize:    fn,
		closeFn:      func() error { return nil },
		languageCode: languageCode,
		log:          log.With("service", "transcribe", "backend", "gcp_speech"),
	}
}

func (t *GCPTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", ErrNoSpeech
	}
	ctx, cancel := context.WithTimeout(ctx, recognizeTimeout)
	defer cancel()

	resp, err := t.recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:               t.languageCode,
			Encoding:                   inferEncoding(mimeType),
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("speech recognition error: %w", err)
	}

	text := joinTranscripts(resp)
	if text == "" {
		return "", ErrNoSpeech
	}
	t.log.Debug("audio transcribed", "bytes", len(audio), "chars", len(text))
	return text, nil
}

// Close releases the speech client.
func (t *GCPTranscriber) Close() error {
	return t.closeFn()
}

func joinTranscripts(resp *speechpb.RecognizeResponse) string {
	var parts []string
	for _, r := range resp.GetResults() {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if s := strings.TrimSpace(alts[0].GetTranscript()); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// inferEncoding maps a mime type or file name to a speech encoding.
// Unknown formats are left unspecified for the API to detect.
func inferEncoding(mimeOrName string) speechpb.RecognitionConfig_AudioEncoding {
	m := strings.ToLower(strings.TrimSpace(mimeOrName))
	ext := filepath.Ext(m)
	switch {
	case strings.Contains(m, "wav") || ext == ".wav":
		return speechpb.RecognitionConfig_LINEAR16
	case strings.Contains(m, "flac"):
		return speechpb.RecognitionConfig_FLAC
	case strings.Contains(m, "mp3") || strings.Contains(m, "mpeg"):
		return speechpb.RecognitionConfig_MP3
	case strings.Contains(m, "ogg") || strings.Contains(m, "opus"):
		return speechpb.RecognitionConfig_OGG_OPUS
	case strings.Contains(m, "webm"):
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

const transcribePrompt = "Transcribe this audio recording verbatim. Return only the spoken words, without commentary. If there is no intelligible speech, return an empty response."

// LLMTranscriber sends the audio inline to a multimodal model.
type LLMTranscriber struct {
	provider llm.Provider
	log      *logger.Logger
}

// NewLLMTranscriber creates an LLMTranscriber. The provider must accept
// audio attachments; Gemini does.
func NewLLMTranscriber(provider llm.Provider, log *logger.Logger) *LLMTranscriber {
	if log == nil {
		log = logger.Nop()
	}
	return &LLMTranscriber{provider: provider, log: log.With("service", "transcribe", "backend", "llm")}
}

func (t *LLMTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", ErrNoSpeech
	}
	if mimeType == "" {
		mimeType = "audio/wav"
	}
	resp, err := t.provider.Generate(llm.WithPurpose(ctx, "notes.transcribe"), llm.Request{
		Messages: []llm.Message{{
			Role:        llm.RoleUser,
			Content:     transcribePrompt,
			Attachments: []llm.Attachment{{MIMEType: mimeType, Data: audio}},
		}},
		MaxTokens: llm.DefaultMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("speech recognition error: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}
