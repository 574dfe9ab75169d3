package tagger

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	streamTerminator = "\r\nEOT\r\n"
	streamReady      = "READY"
	maxStreamLine    = 1024 * 1024
)

// Service sends text to the annotation service and returns its raw response.
type Service interface {
	Annotate(ctx context.Context, text string) (string, error)
}

// HTTPService issues one stateless GET request per batch with the text as query parameter.
type HTTPService struct {
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

func NewHTTPService(baseURL string, timeout time.Duration, requestsPerSecond float64) *HTTPService {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &HTTPService{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		Limiter:    rate.NewLimiter(limit, 1),
	}
}

func (s *HTTPService) Annotate(ctx context.Context, text string) (string, error) {
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return "", fmt.Errorf("tagger url: %w", err)
	}
	query := u.Query()
	query.Set("text", text)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	resp, err := s.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tagger responded with status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (s *HTTPService) httpClient() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return &http.Client{Timeout: 120 * time.Second}
}

// StreamService talks to a tagging server over a raw TCP connection: the text is followed by
// an EOT line and the response lasts until a READY line.
type StreamService struct {
	Addr    string
	Timeout time.Duration
	Dialer  net.Dialer
}

func (s *StreamService) Annotate(ctx context.Context, text string) (string, error) {
	conn, err := s.Dialer.DialContext(ctx, "tcp", s.Addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	if s.Timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(s.Timeout)); err != nil {
			return "", err
		}
	}

	payload := strings.Trim(text, " \t\n") + streamTerminator
	if _, err := io.WriteString(conn, payload); err != nil {
		return "", err
	}

	var sb strings.Builder
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == streamReady {
			return sb.String(), nil
		}
		if line == "" {
			continue
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("tagger stream closed before %s: %w", streamReady, io.ErrUnexpectedEOF)
}
