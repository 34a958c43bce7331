package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/carebot/internal/config"
	"github.com/sandevgo/carebot/internal/core"
	"github.com/sandevgo/carebot/pkg/conv"
	"github.com/sandevgo/carebot/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const maxTelegramMsgLen = 4000 // Safety margin below 4096

// Notifier delivers escalated turns to the on-call provider chat. It sends
// only; no poller runs and no inbound updates are processed.
type Notifier struct {
	bot            *tele.Bot
	providerChatID int64
}

func NewNotifier(cfg *config.TelegramConfig) (*Notifier, error) {
	b, err := tele.NewBot(tele.Settings{
		Token: cfg.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Notifier{
		bot:            b,
		providerChatID: cfg.ProviderChatID,
	}, nil
}

func (n *Notifier) NotifyEscalation(ctx context.Context, outcome core.Outcome) error {
	md := renderTask(outcome)
	return n.sendMarkdown(ctx, tele.ChatID(n.providerChatID), md)
}

// renderTask builds the provider-facing task summary in Markdown.
func renderTask(out core.Outcome) string {
	name := out.Context.Name
	if name == "" {
		name = out.SubjectID
	}

	var b strings.Builder
	b.WriteString("## Escalation: provider review needed\n\n")
	fmt.Fprintf(&b, "**Patient:** %s\n", name)
	fmt.Fprintf(&b, "**Subject ID:** %s\n", out.SubjectID)
	fmt.Fprintf(&b, "**Thread:** %s\n", out.ThreadID)
	fmt.Fprintf(&b, "**Trigger:** %s\n", out.Escalation.MatchedTrigger)
	fmt.Fprintf(&b, "**Intent:** %s\n\n", out.Intent)
	fmt.Fprintf(&b, "**Patient message:**\n> %s\n\n", out.Input)
	if out.Reply != "" {
		fmt.Fprintf(&b, "**Drafted reply:**\n> %s\n", out.Reply)
	}
	return b.String()
}

// sendMarkdown converts Markdown to Telegram HTML and sends it in chunks if needed.
func (n *Notifier) sendMarkdown(ctx context.Context, to tele.Recipient, md string) error {
	logger := log.FromCtx(ctx)
	html := strings.TrimSpace(conv.MarkdownToTelegramHTML([]byte(md)))

	chunks := splitHTML(html, maxTelegramMsgLen)
	for i, chunk := range chunks {
		if _, err := n.bot.Send(to, chunk, tele.ModeHTML); err != nil {
			logger.Error().Err(err).Int("chunk", i).Int("len", len(chunk)).Msg("failed to send telegram chunk")
			return err
		}
	}
	return nil
}

// splitHTML splits text into chunks respecting Telegram's limit.
// It tries to split at newlines to preserve formatting.
func splitHTML(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			chunks = append(chunks, text)
			break
		}

		cut := maxLen
		// Try to find a good break point (newline) in the second half of the chunk
		if idx := strings.LastIndex(text[:maxLen], "\n"); idx > maxLen/3 {
			cut = idx
		}

		chunks = append(chunks, text[:cut])
		text = strings.TrimSpace(text[cut:])
	}
	return chunks
}
