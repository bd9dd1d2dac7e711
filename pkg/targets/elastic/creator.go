package elastic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"

	"github.com/searchbench/searchbench/pkg/data"
	"github.com/searchbench/searchbench/pkg/load"
)

const (
	TargetName = "elastic"

	readyAttempts   = 30
	readyRetryDelay = 2 * time.Second

	adminTimeout = 10 * time.Second
	bulkTimeout  = 60 * time.Second
)

const indexMapping = `{
	"mappings": {
		"properties": {
			"title": {"type": "text"},
			"content": {"type": "text"}
		}
	}
}`

// LoadTarget is the Elasticsearch side of the loading phase: index lifecycle
// and NDJSON bulk ingestion.
type LoadTarget struct {
	host  string
	index string

	client *fasthttp.Client

	// Index creation happens during Setup; the measured time is reported from
	// Finalize together with the refresh.
	indexCreation time.Duration
}

func NewLoadTarget(host, index string) *LoadTarget {
	return &LoadTarget{
		host:   host,
		index:  index,
		client: &fasthttp.Client{},
	}
}

func (t *LoadTarget) Name() string { return TargetName }

func (t *LoadTarget) url(path string) string {
	return fmt.Sprintf("http://%s%s", t.host, path)
}

func (t *LoadTarget) do(method, path, contentType string, body []byte, timeout time.Duration) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(t.url(path))
	req.Header.SetMethod(method)
	if contentType != "" {
		req.Header.SetContentType(contentType)
	}
	if body != nil {
		req.SetBody(body)
	}
	if err := t.client.DoTimeout(req, resp, timeout); err != nil {
		return 0, nil, err
	}
	out := append([]byte(nil), resp.Body()...)
	return resp.StatusCode(), out, nil
}

// Setup waits for the cluster and recreates the index with its mapping.
func (t *LoadTarget) Setup(cfg load.BenchmarkRunnerConfig) (time.Duration, error) {
	if cfg.DBName != "" {
		t.index = cfg.DBName
	}

	start := time.Now()
	if err := t.waitForReady(); err != nil {
		return 0, err
	}
	startup := time.Since(start)

	if cfg.DoCreateDB {
		createStart := time.Now()
		// Delete is best effort; the index may not exist yet.
		t.do(fasthttp.MethodDelete, "/"+t.index, "", nil, adminTimeout)

		status, body, err := t.do(fasthttp.MethodPut, "/"+t.index, "application/json", []byte(indexMapping), adminTimeout)
		if err != nil {
			return startup, errors.Wrap(err, "could not create index")
		}
		if status != fasthttp.StatusOK && status != fasthttp.StatusCreated {
			return startup, fmt.Errorf("could not create index: status %d: %s", status, body)
		}
		t.indexCreation = time.Since(createStart)
	}
	return startup, nil
}

func (t *LoadTarget) waitForReady() error {
	var lastErr error
	for attempt := 0; attempt < readyAttempts; attempt++ {
		status, body, err := t.do(fasthttp.MethodGet, "/_cluster/health", "", nil, adminTimeout)
		if err == nil && status == fasthttp.StatusOK {
			var health struct {
				Status string `json:"status"`
			}
			if jsonErr := json.Unmarshal(body, &health); jsonErr == nil {
				if health.Status == "green" || health.Status == "yellow" {
					return nil
				}
			}
		}
		if err != nil {
			lastErr = err
		}
		time.Sleep(readyRetryDelay)
	}
	return errors.Wrap(lastErr, "cluster failed to become ready")
}

func (t *LoadTarget) Processor() load.Processor { return t }

// ProcessBatch sends one batch through the bulk API as NDJSON.
func (t *LoadTarget) ProcessBatch(docs []data.Document) error {
	var buf bytes.Buffer
	action := fmt.Sprintf(`{"index":{"_index":"%s"}}`, t.index)
	for i := range docs {
		buf.WriteString(action)
		buf.WriteByte('\n')
		line, err := json.Marshal(&docs[i])
		if err != nil {
			return err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	status, body, err := t.do(fasthttp.MethodPost, "/_bulk", "application/x-ndjson", buf.Bytes(), bulkTimeout)
	if err != nil {
		return errors.Wrap(err, "bulk load failed")
	}
	if status != fasthttp.StatusOK && status != fasthttp.StatusCreated {
		return fmt.Errorf("bulk load failed: status %d: %s", status, body)
	}
	return nil
}

// Finalize refreshes the index and reports the index creation time observed
// during Setup.
func (t *LoadTarget) Finalize() (time.Duration, error) {
	status, body, err := t.do(fasthttp.MethodPost, "/"+t.index+"/_refresh", "", nil, adminTimeout)
	if err != nil {
		return t.indexCreation, errors.Wrap(err, "could not refresh index")
	}
	if status != fasthttp.StatusOK {
		return t.indexCreation, fmt.Errorf("could not refresh index: status %d: %s", status, body)
	}
	return t.indexCreation, nil
}

func (t *LoadTarget) Count() (int64, error) {
	status, body, err := t.do(fasthttp.MethodGet, "/"+t.index+"/_count", "", nil, adminTimeout)
	if err != nil {
		return 0, err
	}
	if status != fasthttp.StatusOK {
		return 0, fmt.Errorf("could not count documents: status %d: %s", status, body)
	}
	var out struct {
		Count int64 `json:"count"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (t *LoadTarget) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
