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
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/preston-bernstein/match-overlay/internal/domain"
	"github.com/preston-bernstein/match-overlay/internal/logging"
	"github.com/preston-bernstein/match-overlay/internal/metrics"
)

// Config controls how the client reaches the scoring server.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *metrics.Recorder
}

// Client talks to the scoring server and maps its responses to domain values.
// It holds no cache: every call goes to the server.
type Client struct {
	baseURL    string
	base       *url.URL
	httpClient httpDoer
	logger     *slog.Logger
	metrics    *metrics.Recorder
}

// NewClient constructs a client for the configured base address.
func NewClient(cfg Config) (*Client, error) {
	baseURL := normalizeBaseURL(cfg.BaseURL)
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    baseURL,
		base:       base,
		httpClient: resolveHTTPClient(cfg.HTTPClient),
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}, nil
}

// BaseURL returns the normalized base address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ServerVersion returns the raw body of GET /.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	body, err := c.do(ctx, http.MethodGet, pathServerVersion, nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// OverlayStreamAddress is the WebSocket address of the overlay command stream.
func (c *Client) OverlayStreamAddress() string {
	return websocketAddress(c.base, pathOverlayStream)
}

// TimeStreamAddress is the WebSocket address of the match clock stream.
func (c *Client) TimeStreamAddress() string {
	return websocketAddress(c.base, pathTimeStream)
}

// CurrentMatch resolves the teams on each side of the running match.
// Both ids must be known before either team is looked up; the first failure wins.
func (c *Client) CurrentMatch(ctx context.Context) (domain.CurrentMatch, error) {
	var leftID, rightID int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		leftID, err = c.intBody(gctx, pathLeftTeamID)
		return err
	})
	g.Go(func() (err error) {
		rightID, err = c.intBody(gctx, pathRightTeamID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.CurrentMatch{}, err
	}

	var match domain.CurrentMatch
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		match.Left, err = c.team(gctx, leftID)
		return err
	})
	g.Go(func() (err error) {
		match.Right, err = c.team(gctx, rightID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.CurrentMatch{}, err
	}
	return match, nil
}

// team looks a team up by id; the server expects the id in a PUT body.
func (c *Client) team(ctx context.Context, id int) (domain.Team, error) {
	body, err := c.do(ctx, http.MethodPut, pathTeam, teamRequest{ID: id})
	if err != nil {
		return domain.Team{}, err
	}
	var payload teamResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.Team{}, newProtocolError(pathTeam, body, err)
	}
	team, err := mapTeam(payload)
	if err != nil {
		return domain.Team{}, newProtocolError(pathTeam, body, err)
	}
	return team, nil
}

// ShouldSwitchTVs reports whether the two displays should swap sides.
func (c *Client) ShouldSwitchTVs(ctx context.Context) (bool, error) {
	body, err := c.do(ctx, http.MethodGet, pathSwitchTVs, nil)
	if err != nil {
		return false, err
	}
	switch text := strings.TrimSpace(string(body)); {
	case strings.EqualFold(text, "true"):
		return true, nil
	case strings.EqualFold(text, "false"):
		return false, nil
	default:
		return false, newProtocolError(pathSwitchTVs, body, fmt.Errorf("expected true or false"))
	}
}

// MatchDuration returns the default match length in seconds.
func (c *Client) MatchDuration(ctx context.Context) (int, error) {
	return c.intBody(ctx, pathMatchLength)
}

// CurrentMatchScore returns the running match score.
func (c *Client) CurrentMatchScore(ctx context.Context) (domain.Score, error) {
	body, err := c.do(ctx, http.MethodGet, pathMatchScore, nil)
	if err != nil {
		return domain.Score{}, err
	}
	var payload scoreResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.Score{}, newProtocolError(pathMatchScore, body, err)
	}
	return mapScore(payload), nil
}

func (c *Client) intBody(ctx context.Context, path string) (int, error) {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(body)))
	if err != nil {
		return 0, newProtocolError(path, body, err)
	}
	return n, nil
}

// do performs one request and records it; payload, when non-nil, is sent as JSON.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	start := time.Now()
	body, err := c.roundTrip(ctx, method, path, payload)
	duration := time.Since(start)
	c.metrics.RecordAPICall(path, duration, err)
	if err != nil {
		logging.Warn(c.logger, "api request failed",
			logging.FieldEndpoint, path,
			logging.FieldMethod, method,
			logging.FieldDurationMS, duration.Milliseconds(),
			"error", err,
		)
		return nil, err
	}
	logging.Debug(c.logger, "api request complete",
		logging.FieldEndpoint, path,
		logging.FieldDurationMS, duration.Milliseconds(),
	)
	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("api %s %s: encode request: %w", method, path, err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, &NetworkError{Method: method, Endpoint: path, Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Method: method, Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorExcerpt))
		return nil, &NetworkError{
			Method:     method,
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(snippet))),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Method: method, Endpoint: path, Err: err}
	}
	return body, nil
}
