package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tweetstojson/pkg/errors"
	"tweetstojson/pkg/logger"
)

const userAgent = "tweets-to-json"

// Client calls the v1.1 REST API with an app-only bearer token
type Client struct {
	httpClient  *http.Client
	headers     map[string]string
	baseURL     string
	bearerToken string
	logger      logger.Logger
}

// NewClient creates a new API client
func NewClient(baseURL, bearerToken string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if baseURL == "" {
		baseURL = BaseURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "application/json",
		},
		baseURL:     baseURL,
		bearerToken: bearerToken,
		logger:      log,
	}
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.New(errors.ErrorTypeNetwork, 0, "network error: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// getJSON performs a GET request and decodes the JSON response into target
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.New(errors.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.New(errors.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	if err := c.checkResponseStatus(resp, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errors.New(errors.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
	}

	return nil
}

// checkResponseStatus maps a non-2xx response to a typed error, preferring
// the message the API put in the body
func (c *Client) checkResponseStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	errorType := errors.FromStatusCode(resp.StatusCode)

	var envelope errorResponse
	message := ""
	if json.Unmarshal(body, &envelope) == nil {
		message = envelope.message()
	}
	if message == "" {
		message = defaultMessage(errorType, resp.StatusCode)
	}

	fields := map[string]interface{}{
		"status":     resp.StatusCode,
		"error_type": string(errorType),
		"message":    message,
	}
	if resp.Request != nil {
		fields["url"] = resp.Request.URL.String()
	}
	if errors.IsTransient(errorType) {
		c.logger.WarnWithFields("API request rejected", fields)
	} else {
		c.logger.ErrorWithFields("API request rejected", fields)
	}

	return errors.New(errorType, resp.StatusCode, "%s", message)
}

func defaultMessage(errorType errors.ErrorType, status int) string {
	switch errorType {
	case errors.ErrorTypeAuth:
		return "authentication failed"
	case errors.ErrorTypeNotFound:
		return "resource not found"
	case errors.ErrorTypeRateLimit:
		return "rate limit exceeded"
	case errors.ErrorTypeServerError:
		return "server error"
	default:
		return fmt.Sprintf("unexpected status code: %d", status)
	}
}

// UserTimeline fetches one page of a user's timeline, newest first
func (c *Client) UserTimeline(ctx context.Context, params TimelineParams) ([]Tweet, error) {
	url := GetUserTimelineURL(c.baseURL, params)

	c.logger.DebugWithFields("fetching user timeline", map[string]interface{}{
		"screen_name": params.ScreenName,
		"max_id":      params.MaxID,
		"since_id":    params.SinceID,
	})

	var tweets []Tweet
	if err := c.getJSON(ctx, url, &tweets); err != nil {
		return nil, fmt.Errorf("fetch timeline for @%s: %w", params.ScreenName, err)
	}

	return tweets, nil
}
