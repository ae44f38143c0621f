package montop

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// HertzbeatService reads collected metrics from a HertzBeat manager API
type HertzbeatService struct {
	client *resty.Client
	url    *url.URL
}

func NewHertzbeatService(baseURL *url.URL, token string, timeout time.Duration) *HertzbeatService {
	client := resty.New().
		SetBaseURL(baseURL.String()).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &HertzbeatService{client: client, url: baseURL}
}

func (h *HertzbeatService) Type() string {
	return "hertzbeat"
}

func (h *HertzbeatService) FetchMetrics(ctx context.Context, id int64, metrics string) (*Response, error) {
	var out Response
	resp, err := h.client.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetPathParam("metrics", metrics).
		SetResult(&out).
		ForceContentType("application/json").
		Get("/api/monitor/{id}/metrics/{metrics}")
	if err != nil {
		return nil, transportErr("fetch metrics", err)
	}
	if resp.IsError() {
		return h.errorResponse(resp, "fetch metrics")
	}
	// a proxy or login page can answer 200 without the envelope
	if !gjson.GetBytes(resp.Body(), "code").Exists() {
		return nil, transportErr("fetch metrics", fmt.Errorf("unexpected response (status %d, content type %q)",
			resp.StatusCode(), resp.Header().Get("Content-Type")))
	}
	return &out, nil
}

func (h *HertzbeatService) DescribeMonitor(ctx context.Context, id int64) (*Monitor, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		Get("/api/monitor/{id}")
	if err != nil {
		return nil, transportErr("describe monitor", err)
	}

	body := resp.Body()
	if code := gjson.GetBytes(body, "code"); !code.Exists() || code.Int() != CodeSuccess {
		msg := gjson.GetBytes(body, "msg").String()
		if msg == "" {
			msg = resp.Status()
		}
		return nil, fmt.Errorf("describe monitor %d: %s", id, msg)
	}

	data := gjson.GetBytes(body, "data")
	m := &Monitor{
		ID:   id,
		Name: data.Get("monitor.name").String(),
		App:  data.Get("monitor.app").String(),
		Host: data.Get("monitor.host").String(),
		Port: int(data.Get(`params.#(field=="port").paramValue`).Int()),
	}
	for _, name := range data.Get("metrics").Array() {
		m.Metrics = append(m.Metrics, name.String())
	}
	return m, nil
}

// Check verifies the base URL answers like a HertzBeat manager
func (h *HertzbeatService) Check(ctx context.Context) error {
	resp, err := h.client.R().
		SetContext(ctx).
		Get("/api/summary")
	if err != nil {
		return transportErr("hertzbeat check", err)
	}
	if !gjson.GetBytes(resp.Body(), "code").Exists() {
		return fmt.Errorf("%s does not look like a hertzbeat api (status %d)", h.url, resp.StatusCode())
	}
	return nil
}

// errorResponse turns an HTTP error status into an application error when
// the body still carries a HertzBeat message, and a transport error otherwise
func (h *HertzbeatService) errorResponse(resp *resty.Response, op string) (*Response, error) {
	body := resp.Body()
	code := gjson.GetBytes(body, "code")
	if code.Exists() && code.Int() != CodeSuccess {
		return failResponse(int(code.Int()), gjson.GetBytes(body, "msg").String()), nil
	}
	return nil, transportErr(op, fmt.Errorf("unexpected status %d", resp.StatusCode()))
}
