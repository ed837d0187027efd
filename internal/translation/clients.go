package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxErrorBody = 512

// HTTPTextClient calls a JSON text translation endpoint.
type HTTPTextClient struct {
	url    string
	client *http.Client
}

var _ TextTranslator = (*HTTPTextClient)(nil)

func NewHTTPTextClient(url string, timeout time.Duration) *HTTPTextClient {
	return &HTTPTextClient{url: url, client: newHTTPClient(timeout)}
}

type textRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type textResponse struct {
	TranslatedText string `json:"translated_text"`
}

func (c *HTTPTextClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	body, err := json.Marshal(textRequest{Text: text, SourceLang: sourceLang, TargetLang: targetLang})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var out textResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode translation response: %w", err)
	}
	if strings.TrimSpace(out.TranslatedText) == "" {
		return "", errors.New("translation response is empty")
	}
	return out.TranslatedText, nil
}

// OpenAITextClient translates text with an OpenAI compatible chat model.
type OpenAITextClient struct {
	client *openai.Client
	model  string
}

var _ TextTranslator = (*OpenAITextClient)(nil)

func NewOpenAITextClient(apiKey, baseURL, model string, timeout time.Duration) *OpenAITextClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = newHTTPClient(timeout)
	return &OpenAITextClient{client: openai.NewClientWithConfig(cfg), model: model}
}

func (c *OpenAITextClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("Translate the user's message from %s to %s. "+
					"Reply with the translation only, without quotes or explanations.", sourceLang, targetLang),
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("chat completion returned empty content")
	}
	return out, nil
}

// HTTPAudioClient calls a voice cloning speech translation endpoint.
type HTTPAudioClient struct {
	url      string
	model    string
	maxBytes int64
	client   *http.Client
}

// ErrAudioResponseTooLarge is returned when the synthesized audio exceeds the size limit.
var ErrAudioResponseTooLarge = errors.New("translated audio exceeds size limit")

// DefaultMaxAudioResponse caps synthesized audio when no limit is configured.
const DefaultMaxAudioResponse = 10 << 20

var _ AudioTranslator = (*HTTPAudioClient)(nil)

func NewHTTPAudioClient(url, model string, maxBytes int64, timeout time.Duration) *HTTPAudioClient {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAudioResponse
	}
	return &HTTPAudioClient{url: url, model: model, maxBytes: maxBytes, client: newHTTPClient(timeout)}
}

func (c *HTTPAudioClient) TranslateAudio(ctx context.Context, r AudioRequest) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := writeFilePart(w, "source_audio", r.SourceName, r.Source); err != nil {
		return nil, err
	}
	if err := writeFilePart(w, "reference_audio", r.ReferenceName, r.Reference); err != nil {
		return nil, err
	}
	fields := map[string]string{
		"source_lang": r.SourceLanguage,
		"target_lang": r.TargetLanguage,
		"model":       c.model,
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	if resp.ContentLength > c.maxBytes {
		return nil, ErrAudioResponseTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > c.maxBytes {
		return nil, ErrAudioResponseTooLarge
	}
	return data, nil
}

func writeFilePart(w *multipart.Writer, field, name string, data []byte) error {
	if name == "" {
		name = field + ".wav"
	}
	part, err := w.CreateFormFile(field, name)
	if err != nil {
		return err
	}
	_, err = part.Write(data)
	return err
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("translation service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
}
