package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"git.0xdad.com/tblyler/ocutrack/db"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const (
	// APIVersion of the Generative Language API
	APIVersion = "v1beta"
	// DefaultTimeout for a single model call
	DefaultTimeout = 30 * time.Second

	LabelModel  = "gemini-3-pro-preview"
	SearchModel = "gemini-3-flash-preview"
	SpeechModel = "gemini-2.5-flash-preview-tts"

	// SpeechVoice used for synthesized summaries
	SpeechVoice = "Kore"
	// SpeechSampleRate of the returned 16-bit mono PCM
	SpeechSampleRate = 24000

	labelPrompt = "Extract medication details from this eye drop or tablet bottle. " +
		"Return JSON: { name, type: 'DROPS'|'TABLET', dosage, frequency (int per day), eye: 'Left'|'Right'|'Both' }. " +
		"Leave a field out when the label does not show it."
	questionPrompt    = "Provide patient-friendly medical information about: %s. Focus on eye safety."
	systemInstruction = "You are a professional medical assistant. Provide clear, simple, and safe information " +
		"for elderly patients. Always mention that this is for information only and they should consult a doctor."
)

var (
	errNoCandidate = errors.New("response has no candidate content")
	errNoText      = errors.New("response has no text")
	errNoAudio     = errors.New("response has no audio")
	errEmptyInput  = errors.New("empty input")
)

// Gemini Gateway backed by the genai client
type Gemini struct {
	client  *genai.Client
	timeout time.Duration
	log     zerolog.Logger
}

// NewGemini gateway. An empty baseURL uses the public endpoint and a non positive timeout uses DefaultTimeout.
func NewGemini(ctx context.Context, apiKey, baseURL string, timeout time.Duration, logger zerolog.Logger) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is required")
	}

	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		if _, err := url.ParseRequestURI(baseURL); err != nil {
			return nil, fmt.Errorf("invalid gemini base url: %w", err)
		}
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    baseURL,
			APIVersion: APIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Gemini{
		client:  client,
		timeout: timeout,
		log:     logger.With().Str("component", "gemini").Logger(),
	}, nil
}

// labelResponse uses pointers so absent fields can be told apart from empty ones
type labelResponse struct {
	Name      *string `json:"name"`
	Type      *string `json:"type"`
	Dosage    *string `json:"dosage"`
	Frequency *int    `json:"frequency"`
	Eye       *string `json:"eye"`
}

// -------------------------
// Gateway
// -------------------------

// AnalyzeLabelImage extracts medication fields from a label photo
func (g *Gemini) AnalyzeLabelImage(ctx context.Context, image []byte, mimeType string) (LabelFields, error) {
	if len(image) == 0 {
		return LabelFields{}, failure("analyze label", errEmptyInput)
	}

	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(image, mimeType),
		genai.NewPartFromText(labelPrompt),
	}, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"name":      {Type: genai.TypeString},
				"type":      {Type: genai.TypeString, Enum: []string{string(db.KindDrops), string(db.KindTablet)}},
				"dosage":    {Type: genai.TypeString},
				"frequency": {Type: genai.TypeInteger},
				"eye":       {Type: genai.TypeString, Enum: []string{string(db.EyeLeft), string(db.EyeRight), string(db.EyeBoth)}},
			},
			Required: []string{"name"},
		},
	}

	response, err := g.generate(ctx, LabelModel, contents, config)
	if err != nil {
		return LabelFields{}, failure("analyze label", err)
	}

	text, err := responseText(response)
	if err != nil {
		return LabelFields{}, failure("analyze label", err)
	}

	fields, err := parseLabel(text)
	if err != nil {
		return LabelFields{}, failure("analyze label", err)
	}

	g.log.Debug().Str("name", fields.Name).Msg("label analyzed")

	return fields, nil
}

// AskMedicalQuestion answers with search grounding. Sources without a link are dropped.
func (g *Gemini) AskMedicalQuestion(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, failure("ask question", errEmptyInput)
	}

	contents := []*genai.Content{genai.NewContentFromText(fmt.Sprintf(questionPrompt, question), genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}

	response, err := g.generate(ctx, SearchModel, contents, config)
	if err != nil {
		return Answer{}, failure("ask question", err)
	}

	text, err := responseText(response)
	if err != nil {
		return Answer{}, failure("ask question", err)
	}

	answer := Answer{Text: text, Sources: []Source{}}

	if metadata := response.Candidates[0].GroundingMetadata; metadata != nil {
		for _, chunk := range metadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}

			title := chunk.Web.Title
			if title == "" {
				title = "Source"
			}

			answer.Sources = append(answer.Sources, Source{Title: title, URL: chunk.Web.URI})
		}
	}

	return answer, nil
}

// Synthesize speech for text as 16-bit mono PCM at SpeechSampleRate
func (g *Gemini) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, failure("synthesize", errEmptyInput)
	}

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: SpeechVoice},
			},
		},
	}

	response, err := g.generate(ctx, SpeechModel, contents, config)
	if err != nil {
		return nil, failure("synthesize", err)
	}

	audio, err := responseAudio(response)
	if err != nil {
		return nil, failure("synthesize", err)
	}

	return audio, nil
}

func (g *Gemini) generate(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	started := time.Now()

	response, err := g.client.Models.GenerateContent(ctx, model, contents, config)

	g.log.Debug().Str("model", model).Dur("elapsed", time.Since(started)).Err(err).Msg("model call")

	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", model, err)
	}

	return response, nil
}

func responseParts(response *genai.GenerateContentResponse) ([]*genai.Part, error) {
	if response == nil || len(response.Candidates) == 0 || response.Candidates[0] == nil ||
		response.Candidates[0].Content == nil || len(response.Candidates[0].Content.Parts) == 0 {
		return nil, errNoCandidate
	}

	return response.Candidates[0].Content.Parts, nil
}

// responseText joins the answer parts, leaving out model thoughts
func responseText(response *genai.GenerateContentResponse) (string, error) {
	parts, err := responseParts(response)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, p := range parts {
		if p == nil || p.Thought {
			continue
		}

		b.WriteString(p.Text)
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", errNoText
	}

	return text, nil
}

func responseAudio(response *genai.GenerateContentResponse) ([]byte, error) {
	parts, err := responseParts(response)
	if err != nil {
		return nil, err
	}

	for _, p := range parts {
		if p == nil || p.InlineData == nil || len(p.InlineData.Data) == 0 {
			continue
		}

		return p.InlineData.Data, nil
	}

	return nil, errNoAudio
}

func parseLabel(text string) (LabelFields, error) {
	label := labelResponse{}
	if err := json.Unmarshal([]byte(text), &label); err != nil {
		return LabelFields{}, fmt.Errorf("failed to decode label fields: %w", err)
	}

	if label.Name == nil || strings.TrimSpace(*label.Name) == "" {
		return LabelFields{}, errors.New("label fields missing name")
	}

	fields := LabelFields{Name: strings.TrimSpace(*label.Name)}

	if label.Type != nil && strings.TrimSpace(*label.Type) != "" {
		kind := db.Kind(strings.ToUpper(strings.TrimSpace(*label.Type)))
		if kind != db.KindDrops && kind != db.KindTablet {
			return LabelFields{}, fmt.Errorf("label fields have unknown type %q", *label.Type)
		}

		fields.Kind = kind
	}

	if label.Dosage != nil {
		fields.Dosage = strings.TrimSpace(*label.Dosage)
	}

	if label.Frequency != nil {
		if *label.Frequency < 0 {
			return LabelFields{}, fmt.Errorf("label fields have negative frequency %d", *label.Frequency)
		}

		fields.Frequency = *label.Frequency
	}

	if label.Eye != nil && strings.TrimSpace(*label.Eye) != "" {
		switch eye := strings.ToLower(strings.TrimSpace(*label.Eye)); eye {
		case "left":
			fields.Eye = db.EyeLeft
		case "right":
			fields.Eye = db.EyeRight
		case "both":
			fields.Eye = db.EyeBoth
		default:
			return LabelFields{}, fmt.Errorf("label fields have unknown eye %q", *label.Eye)
		}
	}

	return fields, nil
}
