package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"feastline/config"
	"feastline/shared/constant"
	"feastline/shared/failure"

	"github.com/rs/zerolog/log"
)

const maxErrorBody = 4 << 10

// Client talks to the business owner's catalog API. Every call is scoped by the owner's access token.
type Client interface {
	Get(ctx context.Context, path, token string, query url.Values, out any) error
	Post(ctx context.Context, path, token string, body, out any) error
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
	Message *string         `json:"message"`
}

type clientImpl struct {
	baseURL string
	http    *http.Client
}

func New(cfg *config.Config) Client {
	timeout := time.Duration(cfg.External.Catalog.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return NewWithHTTPClient(cfg.External.Catalog.BaseURL, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(baseURL string, httpClient *http.Client) Client {
	return &clientImpl{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *clientImpl) Get(ctx context.Context, path, token string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, token, query, nil, out)
}

func (c *clientImpl) Post(ctx context.Context, path, token string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, token, nil, body, out)
}

func (c *clientImpl) do(ctx context.Context, method, path, token string, query url.Values, body, out any) error {
	if query == nil {
		query = url.Values{}
	}

	query.Set(constant.RequestParamToken, token)
	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)

	res, err := c.http.Do(req)
	if err != nil {
		log.Error().Err(err).Str("method", method).Str("path", path).Msg("failed to reach catalog api")

		return failure.ServiceUnavailable(fmt.Sprintf("catalog api unreachable: %v", err)) //nolint:wrapcheck
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		msg := errorMessage(res)
		log.Warn().Int("status", res.StatusCode).Str("path", path).Str("message", msg).Msg("catalog api rejected request")

		return failure.FromStatus(res.StatusCode, msg) //nolint:wrapcheck
	}

	if out == nil {
		return nil
	}

	var env envelope
	if err = json.NewDecoder(res.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}

	if err = json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", path, err)
	}

	return nil
}

// errorMessage keeps the upstream wording so it can be shown to the user verbatim.
func errorMessage(res *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))

	var env envelope
	if json.Unmarshal(raw, &env) == nil {
		switch {
		case env.Error != nil && *env.Error != "":
			return *env.Error
		case env.Message != nil && *env.Message != "":
			return *env.Message
		}
	}

	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}

	return http.StatusText(res.StatusCode)
}
