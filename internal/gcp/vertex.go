package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// --- Tagger Model Prompts ---
const TaggerSystemPrompt = "You are a compliance analyst for a wealth-management back office. Your task is to read a client document and produce classification tags. You must output your response as a single valid JSON object."
const TaggerUserPrompt = `Analyze the provided document text and classify it.

Follow these rules precisely:
1.  Produce between 2 and 8 short lowercase tags describing the document's subject (e.g. "kyc", "fee-schedule", "trade-confirmation", "q1").
2.  List the named entities (clients, accounts, institutions) mentioned in the text.
3.  Suggest exactly one category from: "Client Onboarding", "Trading", "Compliance", "Fees", "Correspondence", "Other".
4.  The output MUST be a single valid JSON object with exactly these keys:
    - "tags": array of strings
    - "entities": array of strings
    - "suggestedCategory": string

Example output format:
{
  "tags": ["kyc", "onboarding"],
  "entities": ["Jordan Blake", "Meridian Wealth"],
  "suggestedCategory": "Client Onboarding"
}

Document text follows:
`

// VertexClient holds the pre-configured generative model for document tagging.
type VertexClient struct {
	TaggerModel *genai.GenerativeModel
	baseClient  *genai.Client
}

// NewVertexClient creates a new client holding the tagger model. The model is
// pinned to JSON output at temperature 0 so responses stay parseable.
func NewVertexClient(ctx context.Context, projectID, region, model string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	taggerModel := baseClient.GenerativeModel(model)
	taggerModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(TaggerSystemPrompt)},
	}
	taggerModel.GenerationConfig = genai.GenerationConfig{
		// Force JSON output. This is a critical setting for this model.
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}
	taggerModel.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	return &VertexClient{
		TaggerModel: taggerModel,
		baseClient:  baseClient,
	}, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
