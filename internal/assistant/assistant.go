// Package assistant answers portfolio questions through a language model.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/atharvakonge/investment-navigator/internal/models"
	"github.com/atharvakonge/investment-navigator/internal/monitoring"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"
)

const (
	Greeting = "Hello! I am your Investment AI Assistant. I can help you analyze your portfolio, suggest trades, or explain market concepts. How can I help today?"

	ErrorReply = "Sorry, I encountered an error connecting to the AI service. Please check your API Key."
	EmptyReply = "I couldn't generate a response."
)

// QuickPrompts are offered as one-tap questions
var QuickPrompts = []string{
	"Analyze my portfolio diversity",
	"What is my best performing asset?",
	"Explain the risks of my crypto holdings",
	"Suggest a conservative ETF",
}

// Reply is the assistant's answer. Failed is set when the model could not
// be reached and Text holds the apology.
type Reply struct {
	Text   string `json:"text"`
	HTML   string `json:"html"`
	Failed bool   `json:"failed"`
}

// Assistant builds portfolio-aware prompts for a Generator
type Assistant struct {
	gen     Generator
	md      goldmark.Markdown
	log     *zap.Logger
	metrics *monitoring.Metrics
}

// New creates an Assistant. A nil gen answers every question with ErrorReply.
func New(gen Generator, log *zap.Logger, m *monitoring.Metrics) *Assistant {
	if gen == nil {
		gen = unconfigured{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Assistant{
		gen:     gen,
		md:      goldmark.New(),
		log:     log,
		metrics: m,
	}
}

// Ask answers question in the context of state. It never fails; provider
// errors turn into ErrorReply.
func (a *Assistant) Ask(ctx context.Context, state models.PortfolioState, question string) Reply {
	start := time.Now()
	text, err := a.gen.Generate(ctx, BuildPrompt(state, question))
	if err != nil {
		a.metrics.ObserveAI("error", time.Since(start))
		a.log.Warn("AI request failed", zap.Error(err))
		return Reply{Text: ErrorReply, HTML: a.render(ErrorReply), Failed: true}
	}
	a.metrics.ObserveAI("ok", time.Since(start))

	if strings.TrimSpace(text) == "" {
		text = EmptyReply
	}
	return Reply{Text: text, HTML: a.render(text)}
}

func (a *Assistant) render(text string) string {
	var buf bytes.Buffer
	if err := a.md.Convert([]byte(text), &buf); err != nil {
		a.log.Debug("Markdown rendering failed", zap.Error(err))
		return ""
	}
	return buf.String()
}

type promptHolding struct {
	Symbol string      `json:"symbol"`
	Qty    json.Number `json:"qty"`
	Avg    json.Number `json:"avg"`
	Curr   json.Number `json:"curr"`
	Val    json.Number `json:"val"`
	Class  string      `json:"class"`
}

// BuildPrompt renders the portfolio context and question as one prompt
func BuildPrompt(state models.PortfolioState, question string) string {
	holdings := make([]promptHolding, 0, len(state.Holdings))
	for _, h := range state.Holdings {
		holdings = append(holdings, promptHolding{
			Symbol: h.Symbol,
			Qty:    json.Number(h.Quantity.String()),
			Avg:    json.Number(h.AvgPrice.String()),
			Curr:   json.Number(h.CurrentPrice.String()),
			Val:    json.Number(h.MarketValue().String()),
			Class:  string(h.AssetClass),
		})
	}
	holdingsJSON, _ := json.Marshal(holdings)

	var b strings.Builder
	b.WriteString("You are an expert financial AI assistant called Nav.AI.\n")
	b.WriteString("User Portfolio Context:\n")
	fmt.Fprintf(&b, "Cash: %s\n", models.FormatUSD(state.Cash))
	fmt.Fprintf(&b, "Holdings: %s\n", holdingsJSON)
	fmt.Fprintf(&b, "Total Holdings Value: %s\n\n", models.FormatUSD(state.HoldingsValue()))
	b.WriteString("Answer the user's question based on this context if relevant. Keep answers concise, professional, and helpful.\n")
	fmt.Fprintf(&b, "User Question: %s\n", strings.TrimSpace(question))
	return b.String()
}
