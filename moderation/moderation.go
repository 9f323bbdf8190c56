package moderation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/dustin/go-humanize"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/llaa33219/plakker-web-sub000/domain"
)

const CName = "pack.moderation"

var log = logger.NewNamed(CName)

// MaxEncodedSize is the largest base64 payload sent to the classifier
const MaxEncodedSize = 20 * 1024 * 1024

const instruction = `You are an image content moderator. Classify the image as APPROPRIATE or INAPPROPRIATE.
An image is INAPPROPRIATE only if it contains any of:
1. Political content (politicians, political symbols, propaganda, election material)
2. Sexual content (nudity, sexual acts, sexually suggestive material)
3. Graphic violence (gore, blood, injuries, cruelty)
4. Hate content (hate symbols, discriminatory imagery or text)
5. Depiction of illegal activity (drugs, weapons trafficking, crime)
Anything else, including cartoons, memes, animals, food and everyday scenes, is APPROPRIATE.
Answer with a JSON object only: {"classification": "APPROPRIATE" or "INAPPROPRIATE", "reason": "short explanation"}`

const (
	ReasonTooLarge    = "image is too large to verify"
	ReasonAuthFailed  = "verification service authentication failed"
	ReasonRateLimited = "verification service is busy, please try again later"
	ReasonSystemError = "verification system error"
	ReasonAmbiguous   = "verification result could not be determined"
	ReasonApproved    = "appropriate content"
	ReasonRejected    = "inappropriate content"
)

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

func New() Client {
	return new(client)
}

type Client interface {
	// Configured reports whether classifier credentials are present
	Configured() bool
	// Concurrency returns how many images of one submission may be classified in parallel
	Concurrency() int
	// Classify returns a verdict for a single image, failures are reported as rejections
	Classify(ctx context.Context, image []byte, mediaType, label string) domain.Verdict
	app.Component
}

type client struct {
	conf Config
	api  *openai.Client
}

func (c *client) Init(a *app.App) (err error) {
	c.conf = a.MustComponent("config").(configGetter).GetModeration().withDefaults()
	apiConf := openai.DefaultConfig(c.conf.ApiKey)
	if c.conf.BaseUrl != "" {
		apiConf.BaseURL = c.conf.BaseUrl
	}
	apiConf.HTTPClient = &http.Client{Timeout: c.conf.Timeout}
	c.api = openai.NewClientWithConfig(apiConf)
	if !c.Configured() {
		log.Warn("moderation api key is not set, submissions will be refused")
	}
	return
}

func (c *client) Name() (name string) {
	return CName
}

func (c *client) Configured() bool {
	return c.conf.ApiKey != ""
}

func (c *client) Concurrency() int {
	return c.conf.Concurrency
}

func (c *client) Classify(ctx context.Context, image []byte, mediaType, label string) domain.Verdict {
	if size := base64.StdEncoding.EncodedLen(len(image)); size > MaxEncodedSize {
		return domain.Verdict{
			Reason:      ReasonTooLarge,
			ErrorDetail: "encoded size " + humanize.IBytes(uint64(size)) + " exceeds " + humanize.IBytes(MaxEncodedSize),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.conf.Timeout)
	defer cancel()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.conf.Model,
		MaxTokens: c.conf.MaxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: instruction},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(image),
					Detail: openai.ImageURLDetailLow,
				}},
			},
		}},
	})
	if err != nil {
		verdict := serviceErrorVerdict(err)
		log.Warn("classification failed", zap.String("label", label), zap.String("reason", verdict.Reason), zap.Error(err))
		return verdict
	}
	if len(resp.Choices) == 0 {
		log.Warn("classification returned no choices", zap.String("label", label))
		return domain.Verdict{Reason: ReasonAmbiguous, ErrorDetail: "empty response"}
	}
	verdict := ParseVerdict(resp.Choices[0].Message.Content)
	log.Debug("classified", zap.String("label", label), zap.Bool("approved", verdict.Approved), zap.String("reason", verdict.Reason))
	return verdict
}

type classification struct {
	Classification string `json:"classification"`
	Reason         string `json:"reason"`
}

// ParseVerdict interprets the classifier output. Output that is neither valid json nor contains
// one of the classification tokens is rejected.
func ParseVerdict(content string) domain.Verdict {
	var res classification
	if raw := jsonObject.FindString(content); raw != "" && json.Unmarshal([]byte(raw), &res) == nil {
		switch strings.ToUpper(strings.TrimSpace(res.Classification)) {
		case "APPROPRIATE":
			return domain.Approved(withDefault(res.Reason, ReasonApproved))
		case "INAPPROPRIATE":
			return domain.Rejected(withDefault(res.Reason, ReasonRejected))
		}
	}
	upper := strings.ToUpper(content)
	switch {
	// INAPPROPRIATE contains APPROPRIATE, so it is checked first
	case strings.Contains(upper, "INAPPROPRIATE"):
		return domain.Rejected(ReasonRejected)
	case strings.Contains(upper, "APPROPRIATE"):
		return domain.Approved(ReasonApproved)
	}
	return domain.Verdict{Reason: ReasonAmbiguous, ErrorDetail: content}
}

func serviceErrorVerdict(err error) domain.Verdict {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	verdict := domain.Verdict{ErrorDetail: err.Error()}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		verdict.Reason = ReasonAuthFailed
	case http.StatusTooManyRequests:
		verdict.Reason = ReasonRateLimited
	default:
		verdict.Reason = ReasonSystemError
	}
	return verdict
}

func withDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
