// Package ai answers back-office questions with Gemini, letting the model
// read (never write) the database through a single SQL tool.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	toolName     = "run_readonly_sql"
	maxToolCalls = 5
)

var ErrTooManyToolCalls = errors.New("ai: too many tool calls for one question")

// Answer is what the assistant returns for one question.
type Answer struct {
	Text        string   `json:"response"`
	TotalTokens int      `json:"totalTokens"`
	Queries     []string `json:"queries,omitempty"`
}

// Assistant holds the Gemini client and the read-only query runner.
type Assistant struct {
	client *genai.Client
	runner *QueryRunner
	model  string
	logger *slog.Logger
}

// NewAssistant initializes the Gemini client.
func NewAssistant(ctx context.Context, apiKey, model string, runner *QueryRunner, logger *slog.Logger) (*Assistant, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("ai: create Gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &Assistant{client: client, runner: runner, model: model, logger: logger}, nil
}

// Close releases the Gemini client.
func (a *Assistant) Close() error {
	return a.client.Close()
}

// Ask answers one question for a staff member with the given role.
func (a *Assistant) Ask(ctx context.Context, question, role string) (Answer, error) {
	// 1. Model, tool and system instructions
	model := a.client.GenerativeModel(a.model)
	model.Tools = []*genai.Tool{sqlTool()}
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt(role))},
	}

	// 2. Execute chat
	cs := model.StartChat()
	res, err := cs.SendMessage(ctx, genai.Text(question))
	if err != nil {
		return Answer{}, fmt.Errorf("ai: send message: %w", err)
	}

	var answer Answer
	answer.TotalTokens = tokens(res, 0)

	// 3. Tool loop: run each requested query and hand the rows back
	for calls := 0; ; calls++ {
		call, text, ok := firstPart(res)
		if !ok {
			answer.Text = text
			return answer, nil
		}
		if calls >= maxToolCalls {
			return answer, ErrTooManyToolCalls
		}
		if call.Name != toolName {
			return answer, fmt.Errorf("ai: unknown function %q", call.Name)
		}

		query, _ := call.Args["query"].(string)
		answer.Queries = append(answer.Queries, query)
		a.logger.InfoContext(ctx, "assistant running query", "query", query)

		result, err := a.runner.Run(ctx, query)
		if err != nil {
			a.logger.WarnContext(ctx, "assistant query refused or failed", "query", query, "error", err)
			result = "SQL Error: " + err.Error()
		}

		res, err = cs.SendMessage(ctx, genai.FunctionResponse{
			Name:     toolName,
			Response: map[string]any{"result": result},
		})
		if err != nil {
			return answer, fmt.Errorf("ai: tool response: %w", err)
		}
		answer.TotalTokens = tokens(res, answer.TotalTokens)
	}
}

// firstPart returns the function call in the first candidate, or its text.
func firstPart(res *genai.GenerateContentResponse) (genai.FunctionCall, string, bool) {
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return genai.FunctionCall{}, "No response.", false
	}

	var text strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.FunctionCall:
			return p, "", true
		case genai.Text:
			text.WriteString(string(p))
		}
	}
	if text.Len() == 0 {
		return genai.FunctionCall{}, "No response.", false
	}
	return genai.FunctionCall{}, text.String(), false
}

// Usage metadata is cumulative for the chat, so the latest value wins.
func tokens(res *genai.GenerateContentResponse, current int) int {
	if res.UsageMetadata == nil {
		return current
	}
	return int(res.UsageMetadata.TotalTokenCount)
}

func sqlTool() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        toolName,
				Description: "Executes a READ-ONLY MySQL query (a single SELECT or WITH statement) to answer questions.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"query": {
							Type:        genai.TypeString,
							Description: "The MySQL SELECT query to execute.",
						},
					},
					Required: []string{"query"},
				},
			},
		},
	}
}

func systemPrompt(role string) string {
	return fmt.Sprintf(`
		You are the TaskGig back-office assistant. Role of the person asking: %s.
		Access: MySQL database (%s), read-only.
		Schema: %s
		Rules: one SELECT per call. Amounts are stored in cents; divide by 100 and say the currency (XOF).
		Be concise. Answer in the language of the question.
	`, role, toolName, schemaDefinition)
}

const schemaDefinition = `
	- users (id, role [administrator, manager, client, executant], email, full_name, created_at)
	- wallets (user_id, balance_cents, total_earned_cents, total_withdrawn_cents, updated_at)
	- wallet_transactions (id, user_id, type [withdrawal, reward, bonus], amount_cents, balance_after_cents, notes, created_at)
	- withdrawal_requests (id, user_id, amount_cents, status [pending, approved, rejected, completed], payment_method, external_transaction_id, rejection_reason, rejection_code, admin_notes, processed_by, requested_at, processed_at, completed_at)
	- campaigns (id, client_id, title, created_at)
	- tasks (id, campaign_id, title, reward_cents)
	- task_executions (id, task_id, executant_id, status [assigned, in_progress, submitted, completed, rejected], reward_cents, bonus_cents, rating, rejection_reason, rejection_code, review_notes, submitted_at, reviewed_at, completed_at, reviewer_id)
	`
