package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/sony/gobreaker/v2"

	"expopush/internal/config"
	"expopush/internal/types"
)

// DefaultBaseURL is Expo's push API endpoint.
const DefaultBaseURL = "https://exp.host/--/api/v2/push/send"

// compressionThreshold is the payload size (1 KiB) above which the request
// body is gzip-compressed. Compression is a transport optimization only and
// never changes the logical outcome of a send.
const compressionThreshold = 1 << 10

// gzipLevel matches the relay client's historical compression level.
const gzipLevel = 6

// ticketStatusError marks a ticket whose recipient was rejected.
const ticketStatusError = "error"

// Compile-time assertion that HTTPGateway implements Gateway.
var _ Gateway = (*HTTPGateway)(nil)

// HTTPGateway sends envelopes to Expo's push endpoint over HTTPS. It holds
// only immutable configuration, so one instance may be shared by concurrent
// callers; connection pooling is the http.Client's concern.
//
// Outbound calls go through a circuit breaker so a dead relay trips fast
// instead of tying up every caller for a full timeout. The breaker counts
// transport failures only; HTTP error statuses are application-level
// outcomes and are inspected explicitly, never raised.
type HTTPGateway struct {
	endpoint    string
	host        string
	accessToken types.SecretString
	userAgent   string
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	logger      types.Logger
}

// NewHTTPGateway creates an HTTPGateway from the Expo configuration.
func NewHTTPGateway(cfg config.ExpoConfig, logger types.Logger) (*HTTPGateway, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	return NewHTTPGatewayWithClient(cfg, client, logger)
}

// NewHTTPGatewayWithClient creates an HTTPGateway with a caller-supplied
// HTTP client. This constructor exists for testing, allowing injection of an
// httptest server client.
func NewHTTPGatewayWithClient(cfg config.ExpoConfig, client *http.Client, logger types.Logger) (*HTTPGateway, error) {
	if client == nil {
		return nil, fmt.Errorf("http gateway: client is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("http gateway: logger is nil")
	}

	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = DefaultBaseURL
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("http gateway: invalid base URL %q: %w", endpoint, err)
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "expo-push",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	return &HTTPGateway{
		endpoint:    endpoint,
		host:        parsed.Host,
		accessToken: cfg.AccessToken,
		userAgent:   cfg.UserAgent,
		client:      client,
		breaker:     breaker,
		logger:      logger.With("component", "HTTPGateway"),
	}, nil
}

// pushTicket is one element of the relay's response array, correlating by
// position with one envelope recipient.
type pushTicket struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Details struct {
		Error string `json:"error"`
	} `json:"details"`
}

// pushResponse is the success-path response body shape.
type pushResponse struct {
	Data []pushTicket `json:"data"`
}

// Send turns one envelope into exactly one relay call and one Result.
//
//  1. Serialize the envelope; gzip it when it exceeds 1 KiB.
//  2. POST to the push endpoint. Network failures return an error.
//  3. Non-200 status: the relay could not process the batch; Fatal(body).
//  4. 200: decode the ticket array and map error tickets onto their
//     recipients by position. Any error tickets -> Failed; none -> OK.
func (g *HTTPGateway) Send(ctx context.Context, envelope *Envelope) (Result, error) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return Result{}, fmt.Errorf("marshal envelope: %w", err)
	}

	body, contentEncoding, err := compress(payload)
	if err != nil {
		// Compression must never change the outcome; fall back to the
		// uncompressed payload.
		g.logger.Warn("gzip compression failed, sending uncompressed", "error", err.Error())
		body, contentEncoding = payload, ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	g.setHeaders(req, contentEncoding)

	resp, err := g.breaker.Execute(func() (*http.Response, error) {
		return g.client.Do(req)
	})
	if err != nil {
		return Result{}, types.NewAppError(
			types.ErrCodeUpstreamExpoUnavailable,
			"the push service could not be reached",
			err,
		)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, types.NewAppError(
			types.ErrCodeUpstreamExpoUnavailable,
			"reading the push service response failed",
			err,
		)
	}

	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("push service rejected the batch",
			"status", resp.StatusCode,
			"recipients", len(envelope.recipients),
		)
		return Fatal(string(responseBody)), nil
	}

	return g.interpret(envelope, responseBody)
}

// interpret maps the 200-status response body onto a Result. A missing or
// malformed ticket array is treated as an empty one: with no tickets there
// is nothing to report, so the batch counts as accepted.
func (g *HTTPGateway) interpret(envelope *Envelope, body []byte) (Result, error) {
	var parsed pushResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		g.logger.Warn("unexpected push service response shape, assuming no tickets",
			"error", err.Error(),
		)
		parsed.Data = nil
	}

	var errors []types.DeliveryError
	for i, ticket := range parsed.Data {
		if i >= len(envelope.recipients) {
			break
		}
		if ticket.Status != ticketStatusError {
			continue
		}

		errType, err := types.ParseErrorType(ticket.Details.Error)
		if err != nil {
			return Result{}, fmt.Errorf("decode ticket %d: %w", i, err)
		}
		errors = append(errors, types.NewDeliveryError(errType, envelope.recipients[i], ticket.Message))
	}

	if len(errors) > 0 {
		return Failed(errors), nil
	}
	return OK(), nil
}

// setHeaders applies the relay's required headers. The access token is
// unmasked only here, into the Authorization header.
func (g *HTTPGateway) setHeaders(req *http.Request, contentEncoding string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Content-Type", "application/json")
	req.Host = g.host
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}
	if contentEncoding != "" {
		req.Header.Set("Content-Encoding", contentEncoding)
	}
	if token := g.accessToken.Unmask(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// compress gzips the payload when it exceeds the threshold. It returns the
// body to send and the Content-Encoding to declare ("" for identity).
func compress(payload []byte) ([]byte, string, error) {
	if len(payload) <= compressionThreshold {
		return payload, "", nil
	}

	var buf bytes.Buffer
	writer, err := gzip.NewWriterLevel(&buf, gzipLevel)
	if err != nil {
		return nil, "", err
	}
	if _, err := writer.Write(payload); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "gzip", nil
}
