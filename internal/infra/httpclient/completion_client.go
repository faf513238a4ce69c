package httpclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"quiz-play-service/internal/domain"
)

// CompletionsPath is where completion records are posted.
const CompletionsPath = "/api/completions"

// PlayerHeader identifies the player a completion belongs to.
const PlayerHeader = "X-Player-ID"

// CompletionClient posts completion records to the completion endpoint.
type CompletionClient struct {
	client   *resty.Client
	playerID string
}

func NewCompletionClient(baseURL string, timeout time.Duration) *CompletionClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &CompletionClient{client: client}
}

// ForPlayer returns a client that attributes submissions to playerID.
func (c *CompletionClient) ForPlayer(playerID string) *CompletionClient {
	return &CompletionClient{client: c.client, playerID: playerID}
}

// SubmitCompletion treats any non-2xx response as a retryable failure.
func (c *CompletionClient) SubmitCompletion(ctx context.Context, record domain.CompletionRecord) (domain.CompletionResponse, error) {
	var out domain.CompletionResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader(PlayerHeader, c.playerID).
		SetBody(record).
		SetResult(&out).
		Post(CompletionsPath)
	if err != nil {
		return domain.CompletionResponse{}, fmt.Errorf("%w: %v", domain.ErrSubmissionFailed, err)
	}
	if !resp.IsSuccess() {
		return domain.CompletionResponse{}, fmt.Errorf("%w: status %d: %s", domain.ErrSubmissionFailed, resp.StatusCode(), resp.String())
	}
	return out, nil
}
