package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vietd88/grubberbot/model"
)

// Notifier publishes league announcements to the chat server. Announcements that open a
// thread return its id so later messages can be posted into it.
type Notifier interface {
	AnnounceSubstitute(ctx context.Context, a model.SubAnnouncement) (string, error)
	AnnouncePairing(ctx context.Context, g model.SeasonGame) (string, error)
	AnnounceClaim(ctx context.Context, c Claim) error
}

// Claim is a substitute taking over a slot, along with the games that moved with it.
type Claim struct {
	Source   model.ClaimSource
	Claimant model.ChatUser
	Games    []model.Game
}

func SubstituteMessage(a model.SubAnnouncement) string {
	return fmt.Sprintf("<@%s> from %s needs a substitute for %s week %d. Claim seed `%d` to play in their place.",
		a.ExternalID, a.TeamName, a.Season, a.Week, a.SeedID)
}

func PairingMessage(g model.SeasonGame) string {
	return fmt.Sprintf("%s week %d: <@%s> (white, %s) vs <@%s> (black, %s). Schedule your game in this thread.",
		g.Season, g.Week, g.White.ExternalID, g.White.TeamName, g.Black.ExternalID, g.Black.TeamName)
}

func ClaimMessage(c Claim) string {
	return fmt.Sprintf("<@%s> will substitute for %s in %s week %d (seed `%d`).",
		c.Claimant.ExternalID, c.Source.HolderName, c.Source.Season, c.Source.Week, c.Source.SeedID)
}

// claimThreads lists the substitute request thread and every game thread of the claim.
func claimThreads(c Claim) []string {
	threads := make([]string, 0, len(c.Games)+1)
	if c.Source.SubThreadID != "" {
		threads = append(threads, c.Source.SubThreadID)
	}
	for _, g := range c.Games {
		if g.ThreadID != "" {
			threads = append(threads, g.ThreadID)
		}
	}
	return threads
}

type webhook struct {
	url        string
	httpClient *http.Client
}

func NewWebhook(webhookURL string) (Notifier, error) {
	if _, err := url.ParseRequestURI(webhookURL); err != nil {
		return nil, fmt.Errorf("error parsing webhook url: %w", err)
	}
	n := &webhook{
		url: webhookURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	return n, nil
}

func NewForTest(webhookURL string) Notifier {
	return &webhook{
		url:        webhookURL,
		httpClient: http.DefaultClient,
	}
}

type message struct {
	Content    string `json:"content"`
	ThreadName string `json:"thread_name,omitempty"`
}

type messageResponse struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

func (n *webhook) AnnounceSubstitute(ctx context.Context, a model.SubAnnouncement) (string, error) {
	return n.post(ctx, "", message{
		Content:    SubstituteMessage(a),
		ThreadName: model.SubstituteThreadName(a.SeedID),
	})
}

func (n *webhook) AnnouncePairing(ctx context.Context, g model.SeasonGame) (string, error) {
	return n.post(ctx, "", message{
		Content:    PairingMessage(g),
		ThreadName: model.PairingThreadName(g.ID, g.Season, g.Week, g.White.DisplayName, g.Black.DisplayName),
	})
}

func (n *webhook) AnnounceClaim(ctx context.Context, c Claim) error {
	content := ClaimMessage(c)
	for _, thread := range claimThreads(c) {
		if _, err := n.post(ctx, thread, message{Content: content}); err != nil {
			return err
		}
	}
	return nil
}

// post sends one message. With an empty threadID a new thread is opened, otherwise the
// message goes into the existing thread. The returned id is the thread the message landed in.
func (n *webhook) post(ctx context.Context, threadID string, msg message) (string, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("error encoding webhook message: %w", err)
	}

	u, err := url.Parse(n.url)
	if err != nil {
		return "", fmt.Errorf("error parsing webhook url: %w", err)
	}
	q := u.Query()
	q.Set("wait", "true")
	if threadID != "" {
		q.Set("thread_id", threadID)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error creating http request: %w", err)
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code from webhook: %d", resp.StatusCode)
	}

	var parsed messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("error parsing response from webhook: %w", err)
	}
	if parsed.ChannelID == "" {
		return threadID, nil
	}
	return parsed.ChannelID, nil
}

type logNotifier struct{}

// NewLog returns a Notifier that only writes announcements to the log.
func NewLog() Notifier {
	return logNotifier{}
}

func (logNotifier) AnnounceSubstitute(ctx context.Context, a model.SubAnnouncement) (string, error) {
	slog.Info("substitute requested", "thread", model.SubstituteThreadName(a.SeedID), "message", SubstituteMessage(a))
	return "", nil
}

func (logNotifier) AnnouncePairing(ctx context.Context, g model.SeasonGame) (string, error) {
	slog.Info("game paired",
		"thread", model.PairingThreadName(g.ID, g.Season, g.Week, g.White.DisplayName, g.Black.DisplayName),
		"message", PairingMessage(g))
	return "", nil
}

func (logNotifier) AnnounceClaim(ctx context.Context, c Claim) error {
	slog.Info("substitute claimed", "threads", strings.Join(claimThreads(c), ","), "message", ClaimMessage(c))
	return nil
}
