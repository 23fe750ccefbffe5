package llmbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/baserisk/scanguard/internal/model"
)

const (
	chatMaxHistoryMessages = 20
	chatMaxHistoryChars    = 2000
	chatMaxEvidenceItems   = 12
	chatMaxPromptChars     = 12000
)

// ChatMessage is one turn in a chat-about-scan conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatAboutScan answers a question about a scan using only the evidence
// ledger as context. The snapshot is built from the most relevant evidence
// items (by keyword overlap with the latest user message) and, if the
// resulting prompt would still exceed the character budget, a second pass
// drops the "data" and source fields and keeps only titles/statuses/errors.
func (b *Bridge) ChatAboutScan(ctx context.Context, tokenAddress string, messages []ChatMessage, ledger *model.Ledger) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("chat: empty message list")
	}

	history := messages
	if len(history) > chatMaxHistoryMessages {
		history = history[len(history)-chatMaxHistoryMessages:]
	}

	latestUser := latestUserMessage(history)
	snapshot, err := buildEvidenceSnapshot(ledger, latestUser, false)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}

	system := "You are a risk-scanning assistant answering questions about one already-completed token scan. " +
		"Answer strictly from the evidence snapshot provided below; do not invent facts. " +
		"When you state something the evidence supports, cite its evidence id in parentheses. " +
		"If the snapshot does not contain enough information to answer, say so plainly."

	user := buildUserPrompt(tokenAddress, history, snapshot)
	if len(system)+len(user) > chatMaxPromptChars {
		snapshot, err = buildEvidenceSnapshot(ledger, latestUser, true)
		if err != nil {
			return "", fmt.Errorf("chat: %w", err)
		}
		user = buildUserPrompt(tokenAddress, history, snapshot)
	}

	reply, err := b.primary.Complete(ctx, system, user, 1024)
	if err != nil && b.fallback != nil && b.fallback.Model() != b.primary.Model() {
		reply, err = b.fallback.Complete(ctx, system, user, 1024)
	}
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}

	return reply, nil
}

func buildUserPrompt(tokenAddress string, history []ChatMessage, snapshot string) string {
	var transcript strings.Builder
	for _, m := range history {
		content := m.Content
		if len(content) > chatMaxHistoryChars {
			content = content[:chatMaxHistoryChars] + "..."
		}
		fmt.Fprintf(&transcript, "%s: %s\n", m.Role, content)
	}

	return fmt.Sprintf(
		"Token address: %s\n\nConversation so far:\n%s\nEvidence snapshot (JSON):\n%s",
		tokenAddress, transcript.String(), snapshot,
	)
}

func latestUserMessage(history []ChatMessage) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			return history[i].Content
		}
	}
	return ""
}

// snapshotItem is the shape written into the chat evidence snapshot; compact
// drops Data/SourceURL to shrink the prompt on a second pass.
type snapshotItem struct {
	ID        string `json:"id"`
	Tool      string `json:"tool"`
	Title     string `json:"title,omitempty"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	SourceURL string `json:"sourceUrl,omitempty"`
	Data      any    `json:"data,omitempty"`
}

func buildEvidenceSnapshot(ledger *model.Ledger, query string, compact bool) (string, error) {
	ranked := rankEvidenceByKeywords(ledger.Items, query)
	if len(ranked) > chatMaxEvidenceItems {
		ranked = ranked[:chatMaxEvidenceItems]
	}

	items := make([]snapshotItem, len(ranked))
	for i, item := range ranked {
		si := snapshotItem{
			ID:     item.ID,
			Tool:   string(item.Tool),
			Title:  item.Title,
			Status: string(item.Status),
			Error:  item.Error,
		}
		if !compact {
			si.SourceURL = item.SourceURL
			si.Data = item.Data
		}
		items[i] = si
	}

	bytes, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// rankEvidenceByKeywords sorts a copy of items by how many lowercase tokens
// of query appear in the item's tool name or title, descending; items with
// zero matches keep their original relative order after matched items.
func rankEvidenceByKeywords(items []model.EvidenceItem, query string) []model.EvidenceItem {
	tokens := strings.Fields(strings.ToLower(query))
	scored := make([]model.EvidenceItem, len(items))
	copy(scored, items)

	score := func(item model.EvidenceItem) int {
		haystack := strings.ToLower(string(item.Tool) + " " + item.Title)
		n := 0
		for _, tok := range tokens {
			if tok != "" && strings.Contains(haystack, tok) {
				n++
			}
		}
		return n
	}

	scores := make([]int, len(scored))
	for i, item := range scored {
		scores[i] = score(item)
	}

	for i := 1; i < len(scored); i++ {
		j := i
		for j > 0 && scores[j] > scores[j-1] {
			scores[j], scores[j-1] = scores[j-1], scores[j]
			scored[j], scored[j-1] = scored[j-1], scored[j]
			j--
		}
	}

	return scored
}
