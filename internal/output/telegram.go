package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rsilvagit/tutorfind/internal/model"
)

const telegramAPI = "https://api.telegram.org"

// TelegramWriter sends listings to a Telegram chat via the Bot API.
type TelegramWriter struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
}

func NewTelegramWriter(token, chatID string) *TelegramWriter {
	return &TelegramWriter{
		token:   token,
		chatID:  chatID,
		baseURL: telegramAPI,
		client:  &http.Client{},
	}
}

func (tw *TelegramWriter) WriteListings(listings []model.Listing) error {
	if len(listings) == 0 {
		return tw.send("No listings found\\.")
	}

	header := fmt.Sprintf("*Found %d listing\\(s\\):*\n\n", len(listings))
	entries := make([]string, len(listings))
	for i, l := range listings {
		entries[i] = formatTelegramListing(i+1, l)
	}

	// Telegram has a 4096 char limit per message.
	for _, msg := range chunk(header, entries, 3800) {
		if err := tw.send(msg); err != nil {
			return err
		}
	}
	return nil
}

func formatTelegramListing(n int, l model.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%d\\. %s*\n", n, escapeMarkdown(l.Name))
	fmt.Fprintf(&b, "Courses: %s\n", escapeMarkdown(strings.Join(l.Courses, ", ")))
	fmt.Fprintf(&b, "Location: %s\n", escapeMarkdown(l.Location))
	fmt.Fprintf(&b, "Rating: %s  Price: %s\n",
		escapeMarkdown(fmt.Sprintf("%.2f", l.Rating)), escapeMarkdown(fmt.Sprintf("$%.2f/h", l.Price)))
	b.WriteString("\n")
	return b.String()
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]",
		"(", "\\(", ")", "\\)", "~", "\\~", "`", "\\`",
		">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
		"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}",
		".", "\\.", "!", "\\!",
	)
	return replacer.Replace(s)
}

func (tw *TelegramWriter) send(text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", tw.baseURL, tw.token)

	payload := map[string]string{
		"chat_id":    tw.chatID,
		"text":       text,
		"parse_mode": "MarkdownV2",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshaling payload: %w", err)
	}

	resp, err := tw.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error %d: %v", resp.StatusCode, result["description"])
	}

	return nil
}

// chunk packs header and entries into messages no longer than limit bytes.
// An entry is never split.
func chunk(header string, entries []string, limit int) []string {
	var chunks []string
	var current strings.Builder
	current.WriteString(header)

	for _, entry := range entries {
		if current.Len() > 0 && current.Len()+len(entry) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		current.WriteString(entry)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
