package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rsilvagit/tutorfind/internal/model"
)

// DiscordWriter sends listings to a Discord channel via Webhook.
type DiscordWriter struct {
	webhookURL string
	client     *http.Client
}

func NewDiscordWriter(webhookURL string) *DiscordWriter {
	return &DiscordWriter{
		webhookURL: webhookURL,
		client:     &http.Client{},
	}
}

func (dw *DiscordWriter) WriteListings(listings []model.Listing) error {
	if len(listings) == 0 {
		return dw.send("No listings found.")
	}

	header := fmt.Sprintf("**Found %d listing(s):**\n\n", len(listings))
	entries := make([]string, len(listings))
	for i, l := range listings {
		entries[i] = formatDiscordListing(i+1, l)
	}

	// Discord has a 2000 char limit per message.
	for _, c := range chunk(header, entries, 1900) {
		if err := dw.send(c); err != nil {
			return err
		}
	}
	return nil
}

func formatDiscordListing(n int, l model.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%d. %s**\n", n, l.Name)
	fmt.Fprintf(&b, "> Courses: %s\n", strings.Join(l.Courses, ", "))
	fmt.Fprintf(&b, "> Location: %s\n", l.Location)
	if l.LearningMethod != "" {
		fmt.Fprintf(&b, "> Method: %s\n", l.LearningMethod)
	}
	if len(l.Grades) > 0 {
		fmt.Fprintf(&b, "> Grades: %s\n", strings.Join(l.Grades, ", "))
	}
	fmt.Fprintf(&b, "> Rating: %.2f | $%.2f/h\n", l.Rating, l.Price)
	b.WriteString("\n")
	return b.String()
}

type discordPayload struct {
	Content string `json:"content"`
}

func (dw *DiscordWriter) send(text string) error {
	payload, err := json.Marshal(discordPayload{Content: text})
	if err != nil {
		return fmt.Errorf("discord: marshaling payload: %w", err)
	}

	resp, err := dw.client.Post(dw.webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("discord: sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var result map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("discord: API error %d: %v", resp.StatusCode, result["message"])
	}

	return nil
}
