package usecase

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"docqa/internal/adapter/analyzer"
	"docqa/internal/domain"
	"docqa/internal/logger"
	"docqa/internal/port"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

// DefaultTopK is the number of chunks retrieved for a question.
const DefaultTopK = 4

// AnswerPipeline answers a question in three fixed stages: analyze the
// question into a structured query, retrieve matching chunks, generate an
// answer grounded in them. Every run goes through all three, in order.
type AnswerPipeline struct {
	llm              port.LLM
	search           *SearchUseCase
	tokenizer        *analyzer.Tokenizer
	topK             int
	delay            time.Duration
	maxContextTokens int
}

// NewAnswerPipeline creates a new answer pipeline. delay is the pause
// before the generation call, to stay under provider rate limits.
func NewAnswerPipeline(
	llm port.LLM,
	search *SearchUseCase,
	tokenizer *analyzer.Tokenizer,
	topK int,
	delay time.Duration,
	maxContextTokens int,
) *AnswerPipeline {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if delay < 0 {
		delay = 0
	}
	return &AnswerPipeline{
		llm:              llm,
		search:           search,
		tokenizer:        tokenizer,
		topK:             topK,
		delay:            delay,
		maxContextTokens: maxContextTokens,
	}
}

// Run takes a question through analysis, retrieval and generation. The
// returned state carries whatever stages completed, so callers can show
// the query and sources even when a later stage failed.
func (p *AnswerPipeline) Run(question string) (*domain.PipelineState, error) {
	state := &domain.PipelineState{Question: question}

	query, err := p.AnalyzeQuery(question)
	if err != nil {
		return state, fmt.Errorf("query analysis failed: %w", err)
	}
	state.Query = query
	logger.Debugf("structured query: %q targeting %s", query.Text, query.Section)

	chunks, err := p.Retrieve(query.Text)
	if err != nil {
		return state, fmt.Errorf("retrieval failed: %w", err)
	}
	state.Context = chunks
	logger.Debugf("retrieved %d chunks", len(chunks))

	answer, err := p.Generate(question, chunks)
	if err != nil {
		return state, fmt.Errorf("generation failed: %w", err)
	}
	state.Answer = answer

	return state, nil
}

// AnalyzeQuery turns a free-form question into a structured query. A
// response whose section is not one of the known labels is a generation
// error, not something to paper over.
func (p *AnswerPipeline) AnalyzeQuery(question string) (domain.StructuredQuery, error) {
	system, err := renderTemplate("templates/analyze_prompt.txt", struct {
		Sections []domain.Section
	}{
		Sections: domain.Sections(),
	})
	if err != nil {
		return domain.StructuredQuery{}, err
	}

	resp, err := p.llm.GenerateJSON(system, question)
	if err != nil {
		return domain.StructuredQuery{}, err
	}

	var query domain.StructuredQuery
	if err := json.Unmarshal([]byte(resp), &query); err != nil {
		return domain.StructuredQuery{}, fmt.Errorf("malformed analysis response: %w", err)
	}

	if _, err := domain.ParseSection(string(query.Section)); err != nil {
		return domain.StructuredQuery{}, err
	}

	if query.Text == "" {
		logger.Warnf("analysis produced an empty query, falling back to the question")
		query.Text = question
	}

	return query, nil
}

// Retrieve fetches the top chunks for the structured query text.
func (p *AnswerPipeline) Retrieve(query string) ([]domain.Chunk, error) {
	return p.search.Search(query, p.topK)
}

// Generate produces the final answer from the question and its context.
func (p *AnswerPipeline) Generate(question string, chunks []domain.Chunk) (string, error) {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}

	prompt, err := renderTemplate("templates/answer_prompt.txt", struct {
		Question string
		Context  string
	}{
		Question: question,
		Context:  p.buildContext(chunks),
	})
	if err != nil {
		return "", err
	}

	return p.llm.Generate(prompt)
}

// buildContext joins chunk texts with blank lines, dropping trailing
// chunks once the token budget is spent. The first chunk always goes in.
func (p *AnswerPipeline) buildContext(chunks []domain.Chunk) string {
	if len(chunks) == 0 {
		return ""
	}
	if p.maxContextTokens <= 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		return strings.Join(texts, "\n\n")
	}

	var texts []string
	used := 0
	for i, c := range chunks {
		tokens := p.tokenizer.CountTokens(c.Text)
		if i > 0 && used+tokens > p.maxContextTokens {
			logger.Debugf("context budget reached, dropping %d of %d chunks", len(chunks)-i, len(chunks))
			break
		}
		texts = append(texts, c.Text)
		used += tokens
	}
	return strings.Join(texts, "\n\n")
}

func renderTemplate(name string, data any) (string, error) {
	content, err := promptTemplates.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("template not found: %w", err)
	}

	tmpl, err := template.New("prompt").Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}
