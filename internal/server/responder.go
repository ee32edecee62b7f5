package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/silsgah/Ghana-Legal-AI/internal/expert"
	"github.com/silsgah/Ghana-Legal-AI/internal/llm"
	"github.com/silsgah/Ghana-Legal-AI/internal/memory"
)

// EmitFunc receives each fragment of a streamed reply.
type EmitFunc func(chunk string) error

// Responder produces the streamed expert reply to one question.
type Responder interface {
	Respond(ctx context.Context, ex expert.Expert, history []memory.Turn, question string, emit EmitFunc) error
}

// ScriptedResponder produces deterministic replies without an LLM. It keeps
// the server usable for development and tests.
type ScriptedResponder struct{}

// Respond emits a canned reply word by word.
func (ScriptedResponder) Respond(ctx context.Context, ex expert.Expert, history []memory.Turn, question string, emit EmitFunc) error {
	reply := fmt.Sprintf(
		"%s here. Regarding %q: I can offer general legal information on this topic, not legal advice. "+
			"For a binding opinion, please consult a licensed practitioner in Ghana.",
		ex.Name, question)

	words := strings.SplitAfter(reply, " ")
	for _, w := range words {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := emit(w); err != nil {
			return err
		}
	}
	return nil
}

// LLMResponder delegates reply generation to an OpenAI-compatible endpoint,
// roleplaying the selected expert.
type LLMResponder struct {
	client *llm.Client
	model  string
}

// NewLLMResponder creates a responder backed by the given completion client.
func NewLLMResponder(client *llm.Client, model string) *LLMResponder {
	return &LLMResponder{client: client, model: model}
}

// Respond streams the completion, forwarding each delta.
func (r *LLMResponder) Respond(ctx context.Context, ex expert.Expert, history []memory.Turn, question string, emit EmitFunc) error {
	messages := make([]llm.ChatMessage, 0, len(history)+2)
	messages = append(messages, llm.ChatMessage{Role: "system", Content: characterCard(ex)})
	for _, turn := range history {
		messages = append(messages, llm.ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: "user", Content: question})

	return r.client.StreamCompletion(ctx, r.model, messages, llm.DeltaFunc(emit))
}

// characterCard renders the system prompt for an expert persona.
func characterCard(ex expert.Expert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Let's roleplay. You're %s - a legal expert specializing in Ghana law, ", ex.Name)
	b.WriteString("engaging with a user seeking legal information. Use professional, clear language, ")
	b.WriteString("citing specific Articles of the 1992 Constitution or relevant Case Law where applicable.\n\n")
	b.WriteString("Your responses must never exceed 150 words to keep the advice digestible.\n\n")
	fmt.Fprintf(&b, "Expert name: %s\n", ex.Name)
	fmt.Fprintf(&b, "Area of Expertise: %s\n", ex.Expertise)
	fmt.Fprintf(&b, "Communication style: %s\n\n", ex.Style)
	b.WriteString("You must always follow these rules:\n")
	b.WriteString("- Never mention that you are an AI or a virtual assistant.\n")
	b.WriteString("- If it's the first time you're talking to the user, introduce yourself and your specialty.\n")
	b.WriteString("- Distinguish clearly between constitutional provisions, statutory law, and case law precedents.\n")
	b.WriteString("- Provide plain text responses without formatting indicators or meta-commentary.\n")
	b.WriteString("- Include a disclaimer when necessary that you provide information, not legal advice or representation.\n")
	b.WriteString("- Always keep your response concise.\n")
	return b.String()
}
