// Package azure provides an Azure Speech-backed TTS provider using the
// Cognitive Services REST synthesis API. It implements the tts.Provider
// interface.
package azure

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MrWong99/confab/pkg/audio"
	"github.com/MrWong99/confab/pkg/audio/wav"
	"github.com/MrWong99/confab/pkg/provider/tts"
)

const (
	endpointFmt   = "https://%s.tts.speech.microsoft.com/cognitiveservices/v1"
	defaultFormat = "riff-24khz-16bit-mono-pcm"
	defaultVoice  = "en-US-JennyNeural"
	defaultLang   = "en-US"
	userAgent     = "confab"
)

// outputFormats maps the supported Azure output format names to the PCM
// format they decode to. Only uncompressed RIFF formats are listed — confab
// concatenates raw PCM and never reconciles codecs.
var outputFormats = map[string]audio.Format{
	"riff-16khz-16bit-mono-pcm": {SampleRate: 16000, Channels: 1},
	"riff-24khz-16bit-mono-pcm": {SampleRate: 24000, Channels: 1},
	"riff-48khz-16bit-mono-pcm": {SampleRate: 48000, Channels: 1},
}

// Option is a functional option for configuring the Azure TTS Provider.
type Option func(*Provider)

// WithOutputFormat sets the Azure output format name
// (e.g., "riff-24khz-16bit-mono-pcm"). Unsupported names are rejected by New.
func WithOutputFormat(format string) Option {
	return func(p *Provider) {
		p.outputFormat = format
	}
}

// WithLanguage sets the xml:lang attribute of generated SSML (e.g., "en-US").
func WithLanguage(lang string) Option {
	return func(p *Provider) {
		p.language = lang
	}
}

// WithHTTPClient replaces the HTTP client used for synthesis requests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// WithEndpoint overrides the regional synthesis endpoint. Intended for tests
// and sovereign-cloud deployments.
func WithEndpoint(url string) Option {
	return func(p *Provider) {
		p.endpoint = url
	}
}

// Provider implements tts.Provider backed by the Azure Speech REST API.
type Provider struct {
	key          string
	endpoint     string
	language     string
	outputFormat string
	httpClient   *http.Client
}

// New creates a new Azure TTS Provider for the given subscription key and
// service region. Both must be non-empty.
func New(key, region string, opts ...Option) (*Provider, error) {
	if key == "" {
		return nil, errors.New("azure tts: subscription key must not be empty")
	}
	if region == "" {
		return nil, errors.New("azure tts: region must not be empty")
	}
	p := &Provider{
		key:          key,
		endpoint:     fmt.Sprintf(endpointFmt, region),
		language:     defaultLang,
		outputFormat: defaultFormat,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	if _, ok := outputFormats[p.outputFormat]; !ok {
		return nil, fmt.Errorf("azure tts: unsupported output format %q", p.outputFormat)
	}
	return p, nil
}

// Format returns the PCM format corresponding to the configured output format.
func (p *Provider) Format() audio.Format {
	return outputFormats[p.outputFormat]
}

// Synthesize renders text with the given voice via one REST call and decodes
// the returned RIFF payload into a clip.
func (p *Provider) Synthesize(ctx context.Context, text string, voice tts.Voice) (*audio.Clip, error) {
	if voice.Name == "" {
		voice.Name = defaultVoice
	}

	body := p.buildSSML(text, voice)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("azure tts: build request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", p.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", p.outputFormat)
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("azure tts: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// The service reports synthesis errors as plain-text bodies.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("azure tts: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("azure tts: read response: %w", err)
	}
	clip, err := decodeRIFF(raw)
	if err != nil {
		return nil, err
	}
	if clip.Format != p.Format() {
		return nil, fmt.Errorf("azure tts: service returned %s, expected %s", clip.Format, p.Format())
	}
	return clip, nil
}

// buildSSML assembles the SSML request body for one utterance. Prosody
// attributes are emitted only when the voice deviates from defaults.
func (p *Provider) buildSSML(text string, voice tts.Voice) []byte {
	var esc bytes.Buffer
	xml.EscapeText(&esc, []byte(text)) // never fails for bytes.Buffer

	var b bytes.Buffer
	fmt.Fprintf(&b, `<speak version='1.0' xml:lang='%s'>`, p.language)
	fmt.Fprintf(&b, `<voice name='%s'>`, voice.Name)

	prosody := voice.Rate != 0 || voice.Pitch != 0
	if prosody {
		b.WriteString("<prosody")
		if voice.Rate != 0 {
			fmt.Fprintf(&b, ` rate='%+.0f%%'`, (voice.Rate-1)*100)
		}
		if voice.Pitch != 0 {
			fmt.Fprintf(&b, ` pitch='%+.0fst'`, voice.Pitch)
		}
		b.WriteString(">")
	}
	b.Write(esc.Bytes())
	if prosody {
		b.WriteString("</prosody>")
	}
	b.WriteString("</voice></speak>")
	return b.Bytes()
}

// decodeRIFF decodes the service's RIFF response body into a clip.
func decodeRIFF(raw []byte) (*audio.Clip, error) {
	clip, err := wav.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("azure tts: decode audio: %w", err)
	}
	return clip, nil
}

// Ensure Provider implements tts.Provider at compile time.
var _ tts.Provider = (*Provider)(nil)
