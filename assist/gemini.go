package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

const geminiPrompt = `Tu structures du contenu en Markdown de maniere claire et complete.

Contraintes:
1) Conserver toutes les informations utiles, ne jamais resumer ni tronquer.
2) Utiliser titres, listes, tableaux si pertinent.
3) Ne pas ajouter de phrase d'introduction.
4) Retourner un JSON strict: {"content": string, "tags": string[]}.
5) 2 a 8 tags maximum, courts, en francais.

Texte source:
---
%s
---`

// GeminiRemote formats content with a Gemini model using a JSON response schema.
type GeminiRemote struct {
	client *genai.Client
	model  string
}

func NewGeminiRemote(ctx context.Context, apiKey, model string) (*GeminiRemote, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiRemote{client: client, model: model}, nil
}

func (g *GeminiRemote) Name() string {
	return ProviderGemini
}

var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"content": {Type: genai.TypeString},
		"tags": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"content", "tags"},
}

func (g *GeminiRemote) FormatAndTag(ctx context.Context, raw string) (string, []string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(fmt.Sprintf(geminiPrompt, raw)),
		&genai.GenerateContentConfig{
			MaxOutputTokens:  8192,
			ResponseMIMEType: "application/json",
			ResponseSchema:   responseSchema,
		})
	if err != nil {
		return "", nil, fmt.Errorf("gemini generate failed: %w", err)
	}
	return parseRemoteJSON(resp.Text())
}

// parseRemoteJSON decodes the {"content", "tags"} object a model answers with.
func parseRemoteJSON(text string) (string, []string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil, errEmptyContent
	}
	var out struct {
		Content string   `json:"content"`
		Tags    []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return "", nil, fmt.Errorf("invalid gemini response: %w", err)
	}
	return out.Content, out.Tags, nil
}
