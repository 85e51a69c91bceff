package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/mfachrulrazy/smartgotrack-app/internal/core"
	"github.com/mfachrulrazy/smartgotrack-app/internal/log"
)

// Confidence reported for every successful extraction. The model gives
// no calibrated score, so a fixed value marks assistant-sourced records.
const parsedConfidence = 0.9

const maxInsightPurchases = 50

var errEmptyResponse = errors.New("empty response from model")

// Gemini implements Assistant on the Google GenAI API.
type Gemini struct {
	client        *genai.Client
	model         string
	insightsModel string
	logger        *log.Logger
	now           func() time.Time
}

func NewGemini(ctx context.Context, apiKey, model, insightsModel string, logger *log.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}
	if insightsModel == "" {
		insightsModel = model
	}
	return &Gemini{
		client:        client,
		model:         model,
		insightsModel: insightsModel,
		logger:        logger.WithComponent(log.ComponentAssistant),
		now:           time.Now,
	}, nil
}

// parseEnvelope is the JSON shape the extraction prompt asks for.
type parseEnvelope struct {
	IsPurchase      bool            `json:"isPurchase"`
	Data            *ParsedPurchase `json:"data"`
	ResponseMessage string          `json:"responseMessage"`
}

func (g *Gemini) Parse(ctx context.Context, input string) (*ParsedPurchase, string, error) {
	prompt := g.parsePrompt(input)
	raw, err := g.generate(ctx, g.model, prompt)
	if err != nil {
		return nil, "", err
	}

	var env parseEnvelope
	if err := json.Unmarshal([]byte(stripFences(raw)), &env); err != nil {
		g.logger.Warn("unparseable model response",
			log.FieldOperation, log.OpParse,
			log.FieldModel, g.model,
			log.FieldError, err)
		return nil, "", fmt.Errorf("gemini: decoding response: %w", err)
	}

	if !env.IsPurchase || env.Data == nil {
		return nil, env.ResponseMessage, nil
	}
	env.Data.Confidence = parsedConfidence
	return env.Data, env.ResponseMessage, nil
}

func (g *Gemini) Reply(ctx context.Context, history []Turn, message string) (string, error) {
	var b strings.Builder
	b.WriteString("You are a helpful assistant for SmartGotrack, a grocery expense tracker. ")
	b.WriteString("Help users with budgeting advice, cooking tips based on ingredients, or general questions. Keep answers concise.\n\n")
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "user: %s\nmodel:", message)

	return g.generate(ctx, g.model, b.String())
}

func (g *Gemini) Insights(ctx context.Context, purchases []core.Purchase) (string, error) {
	if len(purchases) > maxInsightPurchases {
		purchases = purchases[:maxInsightPurchases]
	}

	type row struct {
		Item  string  `json:"item"`
		Price string  `json:"price"`
		Store string  `json:"store"`
		Date  string  `json:"date"`
		Total string  `json:"total"`
		Qty   float64 `json:"quantity"`
	}
	rows := make([]row, 0, len(purchases))
	for _, p := range purchases {
		rows = append(rows, row{
			Item:  p.ItemName,
			Price: core.FormatCents(p.PriceCents),
			Store: p.StoreName,
			Date:  p.Date.Key(),
			Total: core.FormatCents(p.TotalCents),
			Qty:   p.Quantity,
		})
	}
	summary, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("gemini: encoding purchase summary: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a helpful financial assistant. Analyze the grocery transaction history provided.\n")
	b.WriteString("Find patterns in spending, expensive items, or store choices.\n")
	b.WriteString("Provide 1 or 2 specific, friendly, and actionable tips to help the user save money.\n")
	b.WriteString("Do not use markdown formatting like bold or headers. Just plain text or bullet points with unicode bullets.\n")
	b.WriteString("Keep it under 80 words.\n\n")
	b.Write(summary)

	text, err := g.generate(ctx, g.insightsModel, b.String())
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return NoInsights, nil
	}
	return text, nil
}

func (g *Gemini) parsePrompt(input string) string {
	var b strings.Builder
	b.WriteString("You are a smart shopping assistant for the app SmartGotrack.\n")
	b.WriteString("Your goal is to extract structured shopping data from natural language user input.\n\n")
	fmt.Fprintf(&b, "Current date reference: %s\n\n", g.now().UTC().Format(time.RFC3339))
	b.WriteString("Return a RAW JSON object. Do NOT use markdown formatting. The object must have:\n")
	b.WriteString("- isPurchase: boolean, true only if the input describes a purchase.\n")
	b.WriteString("- data: object with itemName, storeName, price, quantity, unit, date; null if not a purchase.\n")
	b.WriteString("  - itemName: the name of the product.\n")
	b.WriteString("  - storeName: the name of the shop. If not specified, use \"Unknown Store\".\n")
	b.WriteString("  - price: the unit price, or unit price calculated from the total.\n")
	b.WriteString("  - quantity: the amount bought. Default to 1 if not specified.\n")
	b.WriteString("  - unit: the unit of measure (e.g., kg, lbs, pack, box). Default to \"unit\" if not specified.\n")
	b.WriteString("  - date: the date of purchase in YYYY-MM-DD format. Parse \"today\", \"yesterday\", etc. relative to the current date.\n")
	b.WriteString("- responseMessage: a friendly message confirming what was understood or asking for clarification.\n\n")
	fmt.Fprintf(&b, "User input: %s\n", input)
	return b.String()
}

func (g *Gemini) generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errEmptyResponse
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return "", errEmptyResponse
	}
	return strings.TrimSpace(text.String()), nil
}

// stripFences removes the markdown code fence the model sometimes wraps
// JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
