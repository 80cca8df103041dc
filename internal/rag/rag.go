package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"document-chat/internal/config"
	"document-chat/internal/models"
)

// ErrGeneration marks failures while producing an answer with the chat model.
var ErrGeneration = errors.New("answer generation failed")

type retriever interface {
	Retrieve(ctx context.Context, query string) ([]models.SearchResult, error)
}

// Engine composes retrieved context, chat history and the user question into
// a prompt and asks a chat model for an answer. One Engine serves all chat
// turns; it holds no per-turn state.
type Engine struct {
	retriever       retriever
	chatModels      map[string]llms.Model
	maxContextChars int
	maxTokens       int
	temperature     float64
	rewriteQuestion bool
}

func NewEngine(r retriever, chatModels map[string]llms.Model, chatCfg *config.ChatConfig, maxContextChars int) *Engine {
	return &Engine{
		retriever:       r,
		chatModels:      chatModels,
		maxContextChars: maxContextChars,
		maxTokens:       chatCfg.MaxTokens,
		temperature:     chatCfg.Temperature,
		rewriteQuestion: chatCfg.RewriteQuestion,
	}
}

// SupportsModel reports whether a chat model with that name is configured.
func (e *Engine) SupportsModel(name string) bool {
	_, ok := e.chatModels[name]
	return ok
}

// Answer runs one chat turn: retrieve context for the question, assemble the
// prompt with the session history, generate, post-process.
func (e *Engine) Answer(ctx context.Context, modelName, question string, history []models.ChatMessage) (string, error) {
	model, ok := e.chatModels[modelName]
	if !ok {
		return "", fmt.Errorf("unknown model: %s", modelName)
	}

	// retrieval uses the literal question unless rewriting is enabled
	retrievalQuery := question
	if e.rewriteQuestion && len(history) > 0 {
		rewritten, err := e.rewrite(ctx, model, question, history)
		if err != nil {
			log.Warn().Err(err).Msg("question rewrite failed, using literal question")
		} else if rewritten != "" {
			retrievalQuery = rewritten
		}
	}

	results, err := e.retriever.Retrieve(ctx, retrievalQuery)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve context: %w", err)
	}

	contextBlock := assembleContext(results, e.maxContextChars)
	messages := assembleMessages(contextBlock, history, question)

	resp, err := model.GenerateContent(ctx, messages,
		llms.WithMaxTokens(e.maxTokens),
		llms.WithTemperature(e.temperature),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: model returned no choices", ErrGeneration)
	}

	return stripEchoedPrompt(question, resp.Choices[0].Content), nil
}

// rewrite reformulates the question into a standalone one using the history.
func (e *Engine) rewrite(ctx context.Context, model llms.Model, question string, history []models.ChatMessage) (string, error) {
	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, models.RewriteQuestionPrompt))
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, question))

	resp, err := model.GenerateContent(ctx, messages, llms.WithMaxTokens(e.maxTokens))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// assembleContext joins the retrieved chunk texts and truncates the result to
// the character budget, keeping the prefix. The budget counts runes, so
// multibyte text is never cut mid-character.
func assembleContext(results []models.SearchResult, maxChars int) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString(models.ContextSeparator)
		}
		b.WriteString(r.Content)
	}
	contextBlock := b.String()
	if maxChars > 0 && utf8.RuneCountInString(contextBlock) > maxChars {
		contextBlock = string([]rune(contextBlock)[:maxChars])
	}
	return contextBlock
}

func assembleMessages(contextBlock string, history []models.ChatMessage, question string) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, fmt.Sprintf(models.QASystemPromptTemplate, contextBlock)))
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, question))
	return messages
}

func historyMessages(history []models.ChatMessage) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(history))
	for _, m := range history {
		role := llms.ChatMessageTypeHuman
		if m.Role == models.RoleAI {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, m.Content))
	}
	return messages
}

// stripEchoedPrompt drops the question when a backend echoes it back as a
// prefix of the generated text.
func stripEchoedPrompt(question, answer string) string {
	if strings.HasPrefix(answer, question) {
		return strings.TrimSpace(strings.TrimPrefix(answer, question))
	}
	return answer
}
