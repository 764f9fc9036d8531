package review

import (
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"yqhp/agent-batch/internal/config"
)

const fetchUserAgent = "agent-batch"

// DiffFetcher 通过 HTTP 拉取待评审的代码变更。
type DiffFetcher struct {
	client  *fasthttp.Client
	timeout time.Duration
}

// NewDiffFetcher 创建 diff 拉取器，响应体大小受 MaxDiffBytes 限制。
func NewDiffFetcher(cfg config.ReviewConfig) *DiffFetcher {
	timeout := cfg.DiffTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DiffFetcher{
		client: &fasthttp.Client{
			ReadTimeout:              timeout,
			WriteTimeout:             timeout,
			MaxResponseBodySize:      cfg.MaxDiffBytes,
			NoDefaultUserAgentHeader: true,
		},
		timeout: timeout,
	}
}

// Fetch 拉取 url 指向的 diff 文本。
func (f *DiffFetcher) Fetch(url string) (string, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(fetchUserAgent)
	req.Header.Set(fasthttp.HeaderAccept, "text/plain, application/vnd.github.v3.diff")

	if err := f.client.DoTimeout(req, resp, f.timeout); err != nil {
		return "", fmt.Errorf("拉取 diff 失败: %w", err)
	}

	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		return "", fmt.Errorf("拉取 diff 失败: 状态码 %d (%s)", code, fasthttp.StatusMessage(code))
	}

	body := resp.Body()
	if len(body) == 0 {
		return "", fmt.Errorf("拉取 diff 失败: 响应为空")
	}
	return string(body), nil
}
