// Package elastic speaks to an Elasticsearch endpoint over HTTP: a search
// client for the benchmark phase and a creator/bulk loader for setup.
package elastic

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/searchbench/searchbench/pkg/query"
)

// Client is the per-worker HTTP client. Each worker gets its own pooled
// HostClient, never shared, so connection contention stays out of the
// measured round-trip times.
type Client struct {
	hc      *fasthttp.HostClient
	uri     string
	timeout time.Duration
}

func NewClient(host, index string, timeout time.Duration) *Client {
	return &Client{
		hc: &fasthttp.HostClient{
			Addr:     host,
			MaxConns: 1,
		},
		uri:     fmt.Sprintf("http://%s/%s/_search", host, index),
		timeout: timeout,
	}
}

// Submit posts one rendered search body and measures the wall-clock round
// trip. HTTP-level rejections become error outcomes; transport failures stop
// the calling worker.
func (c *Client) Submit(ctx context.Context, inst *query.Instance) (query.Outcome, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.uri)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(inst.Payload)

	start := time.Now()
	err := c.hc.DoTimeout(req, resp, c.timeout)
	took := time.Since(start)

	if err != nil {
		if err == fasthttp.ErrTimeout {
			// The request-level timeout is a backend rejection of this one
			// query, not a lost endpoint.
			return query.ErrorOutcome(err), nil
		}
		return query.Outcome{}, &query.ConnectivityError{Err: err}
	}
	if resp.StatusCode() >= fasthttp.StatusBadRequest {
		return query.ErrorOutcome(fmt.Errorf("search returned status %d: %s", resp.StatusCode(), resp.Body())), nil
	}
	return query.SuccessOutcome(took), nil
}

func (c *Client) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}
