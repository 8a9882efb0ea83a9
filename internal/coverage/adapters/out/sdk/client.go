package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	out "ridecover/internal/coverage/application/ports/out"
	"ridecover/internal/coverage/domain"
	"ridecover/internal/shared/config"
	"ridecover/internal/shared/logger"
)

const maxResponseBody = 1 << 20

// Client ходит в HTTP мост SDK оценки вождения. Каждая операция выполняется
// в своей горутине, результат приходит в канал один раз.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logger.Logger
}

var (
	_ out.InsuranceTracker = (*Client)(nil)
	_ out.SettingsChecker  = (*Client)(nil)
	_ out.SDKInitializer   = (*Client)(nil)
)

func NewClient(cfg config.SDKConfig, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.Key,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// httpStatusError — ответ моста с не-2xx кодом
type httpStatusError struct {
	status int
	code   string
}

func (e *httpStatusError) Error() string {
	if e.code != "" {
		return fmt.Sprintf("sdk returned %d: %s", e.status, e.code)
	}
	return fmt.Sprintf("sdk returned %d", e.status)
}

func (c *Client) driverURL(driverID string, parts ...string) string {
	return c.baseURL + "/v1/drivers/" + url.PathEscape(driverID) + "/" + strings.Join(parts, "/")
}

// do выполняет запрос и декодирует JSON ответ в dst
func (c *Client) do(ctx context.Context, method, u string, body, dst any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-SDK-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSDKUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", domain.ErrSDKUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var op operationResponse
		_ = json.Unmarshal(raw, &op)
		return &httpStatusError{status: resp.StatusCode, code: op.ErrorCode}
	}

	if dst == nil {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// operation запускает асинхронный вызов, возвращающий OperationResult
func (c *Client) operation(ctx context.Context, action, driverID, u string, body any) <-chan domain.OperationResult {
	ch := make(chan domain.OperationResult, 1)
	go func() {
		defer close(ch)

		var resp operationResponse
		if err := c.do(ctx, http.MethodPost, u, body, &resp); err != nil {
			code := errorCode(err)
			c.log.Warn(logger.Entry{
				Action:   "sdk_call_failed",
				Message:  err.Error(),
				DriverID: driverID,
				Error:    &logger.ErrObj{Msg: err.Error(), Code: code},
				Additional: map[string]any{
					"operation": action,
				},
			})
			ch <- domain.Failed(code)
			return
		}
		ch <- domain.OperationResult{Success: resp.Success, ErrorCode: resp.ErrorCode}
	}()
	return ch
}

func errorCode(err error) string {
	var se *httpStatusError
	switch {
	case errors.As(err, &se) && se.code != "":
		return se.code
	case errors.As(err, &se):
		return fmt.Sprintf("HTTP_%d", se.status)
	case errors.Is(err, context.Canceled):
		return domain.ErrorCodeCanceled
	case errors.Is(err, domain.ErrSDKUnavailable):
		return domain.ErrorCodeNetwork
	default:
		return domain.ErrorCodeSDKUnavailable
	}
}

func rejected(code string) <-chan domain.OperationResult {
	ch := make(chan domain.OperationResult, 1)
	ch <- domain.Failed(code)
	close(ch)
	return ch
}

func (c *Client) StopPeriod(ctx context.Context, driverID string) <-chan domain.OperationResult {
	return c.operation(ctx, "stop_period", driverID, c.driverURL(driverID, "insurance", "stop"), nil)
}

func (c *Client) StartPeriod1(ctx context.Context, driverID string) <-chan domain.OperationResult {
	return c.operation(ctx, "start_period_1", driverID, c.driverURL(driverID, "insurance", "period1"), nil)
}

func (c *Client) StartDriveWithPeriod2(ctx context.Context, driverID, trackingID string) <-chan domain.OperationResult {
	if trackingID == "" {
		return rejected(domain.ErrorCodeInvalidTrackID)
	}
	return c.operation(ctx, "start_period_2", driverID, c.driverURL(driverID, "insurance", "period2"),
		trackingRequest{TrackingID: trackingID})
}

func (c *Client) StartDriveWithPeriod3(ctx context.Context, driverID, trackingID string) <-chan domain.OperationResult {
	if trackingID == "" {
		return rejected(domain.ErrorCodeInvalidTrackID)
	}
	return c.operation(ctx, "start_period_3", driverID, c.driverURL(driverID, "insurance", "period3"),
		trackingRequest{TrackingID: trackingID})
}

// IsSetup: любая ошибка трактуется как «не инициализирован»
func (c *Client) IsSetup(ctx context.Context, driverID string) bool {
	var resp setupStatusResponse
	if err := c.do(ctx, http.MethodGet, c.driverURL(driverID, "setup"), nil, &resp); err != nil {
		c.log.Debug(logger.Entry{
			Action:   "sdk_setup_status_failed",
			Message:  err.Error(),
			DriverID: driverID,
		})
		return false
	}
	return resp.IsSetup
}

func (c *Client) Setup(ctx context.Context, req out.SetupRequest) <-chan domain.OperationResult {
	return c.operation(ctx, "setup", req.DriverID, c.driverURL(req.DriverID, "setup"), setupRequestBody{
		SDKKey:        req.SDKKey,
		DetectionMode: req.DetectionMode,
	})
}

// Settings отдаёт nil, если мост ответил 404/409 (SDK не инициализирован) или недоступен
func (c *Client) Settings(ctx context.Context, driverID string) <-chan *domain.SettingsReport {
	ch := make(chan *domain.SettingsReport, 1)
	go func() {
		defer close(ch)

		var raw json.RawMessage
		if err := c.do(ctx, http.MethodGet, c.driverURL(driverID, "settings"), nil, &raw); err != nil {
			c.log.Info(logger.Entry{
				Action:   "sdk_settings_unavailable",
				Message:  err.Error(),
				DriverID: driverID,
			})
			ch <- nil
			return
		}

		report, err := decodeSettings(raw)
		if err != nil {
			c.log.Warn(logger.Entry{
				Action:   "sdk_settings_decode_failed",
				Message:  err.Error(),
				DriverID: driverID,
				Error:    &logger.ErrObj{Msg: err.Error()},
			})
			ch <- nil
			return
		}
		ch <- report
	}()
	return ch
}
