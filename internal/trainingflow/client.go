package trainingflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// APIError is a non-2xx answer from the LMS API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lms api: %d %s", e.Status, e.Message)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client talks to the LMS API on behalf of one signed-in learner. It
// implements ViewGate.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL, accessToken string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetAuthToken(accessToken).
			SetTimeout(15 * time.Second).
			SetHeader("Accept", "application/json"),
	}
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	var ok, failed envelope
	req := c.http.R().
		SetContext(ctx).
		SetResult(&ok).
		SetError(&failed)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Post(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		msg := failed.Message
		if msg == "" {
			msg = resp.Status()
		}
		return &APIError{Status: resp.StatusCode(), Message: msg}
	}
	if out == nil || len(ok.Data) == 0 {
		return nil
	}
	return json.Unmarshal(ok.Data, out)
}

func (c *Client) StartViewing(ctx context.Context, enrollmentID uint) error {
	return c.post(ctx, fmt.Sprintf("/api/assignments/%d/viewing/start", enrollmentID), nil, nil)
}

func (c *Client) ConfirmViewing(ctx context.Context, enrollmentID uint) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.post(ctx, fmt.Sprintf("/api/assignments/%d/viewing/confirm", enrollmentID), nil, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// SubmitCompletion stores the completion and returns the new record id.
func (c *Client) SubmitCompletion(ctx context.Context, completion *Completion) (uint, error) {
	var out struct {
		ID uint `json:"id"`
	}
	if err := c.post(ctx, "/api/training-records", completion.Request(), &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}
