package feed

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lysyi3m/feedsink/app/logsink"
)

const (
	fetcherComponent = "fetcher"
	maxBodySize      = 10 << 20
	defaultTimeout   = 15 * time.Second
)

type ErrorKind string

const (
	KindInvalidURL ErrorKind = "invalid_url"
	KindTimeout    ErrorKind = "timeout"
	KindNetwork    ErrorKind = "network"
	KindTLS        ErrorKind = "tls"
	KindHTTPStatus ErrorKind = "http_status"
	KindParse      ErrorKind = "parse"
)

// FetchError classifies every failure of a single fetch
type FetchError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("fetch %s: %s: HTTP %d", e.URL, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// KindOf returns the fetch error kind carried by err, or "" when err is not a FetchError
func KindOf(err error) ErrorKind {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Kind
	}
	return ""
}

type Options struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
}

type Fetcher struct {
	parser    *Parser
	sink      *logsink.Sink
	userAgent string
	secure    *http.Client
	insecure  *http.Client
}

func NewFetcher(parser *Parser, sink *logsink.Sink, userAgent string) *Fetcher {
	return &Fetcher{
		parser:    parser,
		sink:      sink,
		userAgent: userAgent,
		secure:    &http.Client{Transport: newTransport(false)},
		insecure:  &http.Client{Transport: newTransport(true)},
	}
}

func newTransport(insecureSkipVerify bool) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: insecureSkipVerify}
	return transport
}

// Fetch downloads and parses the feed at rawURL within opts.Timeout
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts Options) (*Document, error) {
	feedURL, err := validateURL(rawURL)
	if err != nil {
		return nil, &FetchError{Kind: KindInvalidURL, URL: rawURL, Err: err}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := f.secure
	if opts.InsecureSkipVerify {
		client = f.insecure
		f.sink.Writef(fetcherComponent, "TLS certificate verification disabled for %s", feedURL)
		slog.Debug("TLS certificate verification disabled", "url", feedURL)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindInvalidURL, URL: feedURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: classify(err), URL: feedURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			Kind:       KindHTTPStatus,
			URL:        feedURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &FetchError{Kind: classify(err), URL: feedURL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	doc, err := f.parser.Run(data)
	if err != nil {
		return nil, &FetchError{Kind: KindParse, URL: feedURL, Err: err}
	}

	return doc, nil
}

func validateURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", errors.New("empty URL")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("missing host")
	}

	return u.String(), nil
}

func classify(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var (
		verifyErr    *tls.CertificateVerificationError
		unknownAuth  x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		certInvalid  x509.CertificateInvalidError
		recordHdrErr tls.RecordHeaderError
	)
	if errors.As(err, &verifyErr) || errors.As(err, &unknownAuth) || errors.As(err, &hostnameErr) ||
		errors.As(err, &certInvalid) || errors.As(err, &recordHdrErr) {
		return KindTLS
	}

	return KindNetwork
}
