package notification

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/autobrr/autobrr/pkg/errors"
	"github.com/autobrr/autobrr/pkg/sharedhttp"
	"github.com/sirupsen/logrus"

	"github.com/tsugiapp/tsugi/pkg/config"
)

type DiscordMessage struct {
	Content   interface{}    `json:"content"`
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Embeds    []DiscordEmbed `json:"embeds,omitempty"`
}

type DiscordEmbed struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Color       int       `json:"color"`
	Timestamp   time.Time `json:"timestamp"`
}

type EmbedColors int

const (
	LIGHT_BLUE EmbedColors = 0x58b9ff
	RED        EmbedColors = 0xed4245
	GREEN      EmbedColors = 0x57f287
)

// Discord markdown characters that need escaping
var discordMarkdownChars = regexp.MustCompile(`([\\*_~` + "`" + `|>])`)

func escapeDiscordMarkdown(text string) string {
	if text == "" {
		return text
	}
	return discordMarkdownChars.ReplaceAllString(text, `\$1`)
}

type discordSender struct {
	log    *logrus.Entry
	config config.DiscordConfig

	httpClient *http.Client
}

func NewDiscordSender(log *logrus.Entry, cfg config.DiscordConfig) Sender {
	return &discordSender{
		log:    log.WithField("sender", "discord"),
		config: cfg,
		httpClient: &http.Client{
			Timeout:   time.Second * 30,
			Transport: sharedhttp.Transport,
		},
	}
}

func (d *discordSender) Name() string {
	return "discord"
}

func (d *discordSender) CanSend() bool {
	return d.config.WebhookURL != ""
}

func (d *discordSender) Send(event string, details string) error {
	msg := DiscordMessage{
		Content:   nil,
		Username:  d.config.Username,
		AvatarURL: d.config.AvatarURL,
		Embeds: []DiscordEmbed{
			{
				Title:       escapeDiscordMarkdown(event),
				Description: escapeDiscordMarkdown(details),
				Color:       int(colorForEvent(event)),
				Timestamp:   time.Now(),
			},
		},
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "could not marshal json request")
	}

	if err := d.sendRequest(jsonData); err != nil {
		return errors.Wrap(err, "failed to send message to Discord")
	}

	d.log.Debugf("Notification sent: %s", event)
	return nil
}

func (d *discordSender) sendRequest(jsonData []byte) error {
	req, err := http.NewRequest(http.MethodPost, d.config.WebhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return errors.Wrap(err, "could not create request")
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := d.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "client request error")
	}
	defer res.Body.Close()

	// a 429 carries a Retry-After, wait it out once and resend
	if res.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(res.Header)
		d.log.Warnf("Discord rate limit hit, retrying in %v", retryAfter)
		time.Sleep(retryAfter)
		return d.resend(jsonData)
	}

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusNoContent {
		body, readErr := io.ReadAll(res.Body)
		if readErr != nil {
			return errors.Wrap(readErr, "could not read body")
		}

		return errors.New("unexpected status: %v body: %v", res.StatusCode, string(body))
	}

	return nil
}

func (d *discordSender) resend(jsonData []byte) error {
	req, err := http.NewRequest(http.MethodPost, d.config.WebhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return errors.Wrap(err, "could not create request")
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := d.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "client request error")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusNoContent {
		return errors.New("unexpected status after retry: %v", res.StatusCode)
	}

	return nil
}

func parseRetryAfter(headers http.Header) time.Duration {
	if val := headers.Get("Retry-After"); val != "" {
		if secs, err := strconv.ParseFloat(val, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return time.Second
}

func colorForEvent(event string) EmbedColors {
	switch event {
	case "Episode deleted":
		return RED
	case "Episode grabbed":
		return GREEN
	default:
		return LIGHT_BLUE
	}
}
