package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"path"
	"strings"
	"time"
)

var blockedPrefixes = func() []netip.Prefix {
	var out []netip.Prefix
	for _, s := range []string{"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "169.254.0.0/16", "::1/128", "fc00::/7", "fe80::/10"} {
		out = append(out, netip.MustParsePrefix(s))
	}
	return out
}()

const maxFetchBytes = 10 << 20

// Fetcher downloads indicator CSVs published at a URL.
type Fetcher struct {
	Client     *http.Client
	MaxRetries int
	// AllowPrivate permits loopback and private addresses.
	AllowPrivate bool
}

func NewFetcher() *Fetcher {
	f := &Fetcher{MaxRetries: 3}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         f.dialContext,
		ForceAttemptHTTP2:   true,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	f.Client = &http.Client{
		Timeout:       30 * time.Second,
		Transport:     transport,
		CheckRedirect: f.checkRedirect,
	}
	return f
}

// FetchCSV returns the body at rawURL and the file name taken from its
// path. Status 429 and 5xx are retried with backoff.
func (f *Fetcher) FetchCSV(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, "", fmt.Errorf("invalid URL %q", rawURL)
	}

	var lastErr error
	for attempt := 0; attempt <= f.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			jitter := time.Duration(rand.Intn(100)) * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(backoff + jitter):
			}
		}

		body, status, err := f.get(ctx, rawURL)
		if err == nil {
			return body, path.Base(u.Path), nil
		}
		lastErr = err
		if !shouldRetry(err, status) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv,text/plain;q=0.9,*/*;q=0.5")
	req.Header.Set("User-Agent", "ywc-dashboard/1.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxFetchBytes {
		return nil, resp.StatusCode, fmt.Errorf("file exceeds %d bytes", maxFetchBytes)
	}
	return body, resp.StatusCode, nil
}

func (f *Fetcher) dialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	d := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	if f.AllowPrivate {
		return d.DialContext(ctx, network, addr)
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	for _, ip := range ips {
		if isPrivateIP(ip.IP) {
			return nil, fmt.Errorf("blocked private IP: %s", ip.IP)
		}
	}
	return d.DialContext(ctx, network, addr)
}

func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return fmt.Errorf("stopped after 10 redirects")
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("redirect scheme blocked")
	}
	host := strings.ToLower(req.URL.Hostname())
	if !f.AllowPrivate && (host == "localhost" || strings.HasSuffix(host, ".local")) {
		return fmt.Errorf("redirect to internal host blocked")
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	if ip == nil {
		return true
	}
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast() || ip.IsPrivate() || ip.IsUnspecified() {
		return true
	}
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return false
	}
	for _, prefix := range blockedPrefixes {
		if prefix.Contains(addr.Unmap()) {
			return true
		}
	}
	return false
}

func shouldRetry(err error, statusCode int) bool {
	if statusCode == 0 {
		var netErr net.Error
		return errors.As(err, &netErr) && netErr.Timeout()
	}
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}
