package client

import (
	"context"
	stdtls "crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/proxy"
)

// ProbeResult holds the timing and status of one preflight request.
type ProbeResult struct {
	URL                  string        `json:"url"`
	StartTime            time.Time     `json:"start_time"`
	DNSDone              time.Duration `json:"dns_done"`
	ConnectDone          time.Duration `json:"connect_done"` // TCP handshake complete
	TLSHandshakeDone     time.Duration `json:"tls_done"`
	GotFirstResponseByte time.Duration `json:"ttfb"`
	TotalDuration        time.Duration `json:"total_duration"`
	StatusCode           int           `json:"status_code"`
	Protocol             string        `json:"protocol"`
	ConnectionReused     bool          `json:"connection_reused"`
	Error                string        `json:"error,omitempty"`
}

// Prober checks that the booking site is reachable, and not refusing us,
// before a browser is launched. It speaks with a browser TLS fingerprint
// through the same proxy the browser will use.
type Prober struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
	safety    *SafetyManager
}

// ProberOptions configures NewProber. Zero values mean direct connection,
// default user agent and a fresh SafetyManager.
type ProberOptions struct {
	ProxyURL  string
	UserAgent string
	Headers   map[string]string
	Safety    *SafetyManager
	Timeout   time.Duration
	// Transport replaces the fingerprinted transport; tests use it.
	Transport http.RoundTripper
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func NewProber(opts ProberOptions) *Prober {
	if opts.Timeout == 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Safety == nil {
		opts.Safety = NewSafetyManager()
	}
	transport := opts.Transport
	if transport == nil {
		transport = newFingerprintedTransport(opts.ProxyURL)
	}
	return &Prober{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		userAgent: opts.UserAgent,
		headers:   opts.Headers,
		safety:    opts.Safety,
	}
}

// Safety returns the manager fed by Probe.
func (p *Prober) Safety() *SafetyManager { return p.safety }

// dialVia returns a dial function that goes through the SOCKS5 proxy in
// proxyURL, or directly when it is empty.
func dialVia(proxyURL string) func(ctx context.Context, network, addr string) (net.Conn, error) {
	direct := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if proxyURL == "" {
		return direct.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		var auth *proxy.Auth
		if u.User != nil {
			password, _ := u.User.Password()
			auth = &proxy.Auth{
				User:     u.User.Username(),
				Password: password,
			}
		}
		dialer, err := proxy.SOCKS5("tcp", u.Host, auth, direct)
		if err != nil {
			return nil, err
		}
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return dialer.Dial(network, addr)
	}
}

func newFingerprintedTransport(proxyURL string) http.RoundTripper {
	dial := dialVia(proxyURL)
	return &http.Transport{
		DialContext: dial,
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, _, _ := net.SplitHostPort(addr)
			conn, err := dial(ctx, network, addr)
			if err != nil {
				return nil, err
			}

			// HelloCustom with ALPN pinned to HTTP/1.1: http.Transport cannot
			// speak h2 over a foreign TLS connection.
			uConn := utls.UClient(conn, &utls.Config{
				ServerName: host,
				NextProtos: []string{"http/1.1"},
			}, utls.HelloCustom)

			spec, err := utls.UTLSIdToSpec(utls.HelloChrome_Auto)
			if err != nil {
				conn.Close()
				return nil, fmt.Errorf("failed to get utls spec: %w", err)
			}
			for i, ext := range spec.Extensions {
				if alpn, ok := ext.(*utls.ALPNExtension); ok {
					alpn.AlpnProtocols = []string{"http/1.1"}
					spec.Extensions[i] = alpn
				}
			}
			if err := uConn.ApplyPreset(&spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("failed to apply preset: %w", err)
			}
			if err := uConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return uConn, nil
		},
		ForceAttemptHTTP2: false,
	}
}

// Probe issues a GET for target and feeds the response to the safety
// manager. Transport errors are recorded in the result, not returned;
// the error return is for requests that could not be built or were
// refused because safety already tripped.
func (p *Prober) Probe(ctx context.Context, target string) (*ProbeResult, error) {
	if p.safety.IsTriggered() {
		return nil, fmt.Errorf("probe %s: %w", target, ErrSafetyTriggered)
	}

	var start, dnsDone, connDone, tlsDone, firstByte time.Time
	var reused bool
	trace := &httptrace.ClientTrace{
		DNSDone:              func(httptrace.DNSDoneInfo) { dnsDone = time.Now() },
		ConnectDone:          func(string, string, error) { connDone = time.Now() },
		TLSHandshakeDone:     func(stdtls.ConnectionState, error) { tlsDone = time.Now() },
		GotFirstResponseByte: func() { firstByte = time.Now() },
		GotConn:              func(info httptrace.GotConnInfo) { reused = info.Reused },
	}

	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build probe request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	start = time.Now()
	resp, err := p.client.Do(req)
	result := &ProbeResult{URL: target, StartTime: start, TotalDuration: time.Since(start)}
	since := func(t time.Time) time.Duration {
		if t.IsZero() {
			return 0
		}
		return t.Sub(start)
	}
	result.DNSDone = since(dnsDone)
	result.ConnectDone = since(connDone)
	result.TLSHandshakeDone = since(tlsDone)
	result.GotFirstResponseByte = since(firstByte)
	result.ConnectionReused = reused

	if err != nil {
		result.Error = err.Error()
		p.safety.CheckError(err)
		return result, nil
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	result.StatusCode = resp.StatusCode
	result.Protocol = resp.Proto
	p.safety.CheckResponse(resp)
	return result, nil
}
