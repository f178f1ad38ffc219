package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/iudanet/ngsiadmin/internal/logging"
	"github.com/iudanet/ngsiadmin/internal/metrics"
	"github.com/iudanet/ngsiadmin/pkg/ngsi"
)

// Заголовки NGSI v2
const (
	HeaderAuthToken  = "X-Auth-Token"
	HeaderService    = "Fiware-Service"
	HeaderCorrelator = "Fiware-Correlator"
)

// DefaultTimeout is used when no timeout option is supplied.
const DefaultTimeout = 30 * time.Second

//go:generate moq -out client_mock.go . ClientAPI

// ClientAPI описывает транспорт к брокеру, который использует entities.Service
type ClientAPI interface {
	// Get выполняет GET запрос; params может быть nil
	Get(ctx context.Context, path string, params url.Values) (*Response, error)

	// Post выполняет POST запрос с JSON телом; params может быть nil
	Post(ctx context.Context, path string, params url.Values, body any) (*Response, error)
}

// Response is a successful (2xx) broker response.
type Response struct {
	Body       []byte
	StatusCode int
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Message    string // error/description из тела ответа брокера, если удалось разобрать
	Body       []byte
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, logging.Truncate(e.Body, logging.MaxBodyLogLen))
}

// Client представляет HTTP клиент для взаимодействия с context broker
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *metrics.Metrics
	baseURL    string
	token      string
	service    string
}

// Option настраивает Client
type Option func(*Client)

// WithService sets the Fiware-Service tenant header.
func WithService(service string) Option {
	return func(c *Client) {
		c.service = service
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRateLimit limits outgoing requests to rps per second. rps <= 0 disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithLogger enables request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics enables request metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTransport replaces the underlying round tripper (TLS settings, tests).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// NewClient создает новый API клиент.
// baseURL - адрес API брокера (например, http://orion:1026/v2), token - X-Auth-Token.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки авторизации и тенанта при редиректе
				for _, h := range []string{HeaderAuthToken, HeaderService} {
					if v := via[0].Header.Get(h); v != "" && req.Header.Get(h) == "" {
						req.Header.Set(h, v)
					}
				}
				return nil
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger != nil || c.metrics != nil {
		c.httpClient.Transport = newInstrumentedTransport(c.httpClient.Transport, c.logger, c.metrics)
	}

	return c
}

// Get выполняет GET запрос к path относительно baseURL
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.doRequest(ctx, http.MethodGet, path, params, nil)
}

// Post выполняет POST запрос с JSON телом
func (c *Client) Post(ctx context.Context, path string, params url.Values, body any) (*Response, error) {
	return c.doRequest(ctx, http.MethodPost, path, params, body)
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, body any) (*Response, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderCorrelator, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(HeaderAuthToken, c.token)
	}
	if c.service != "" {
		req.Header.Set(HeaderService, c.service)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: respBody}
		var errResp ngsi.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			statusErr.Message = errResp.Error
			if errResp.Description != "" {
				statusErr.Message += ": " + errResp.Description
			}
		}
		return nil, statusErr
	}

	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}
