package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"
)

// FetchErrorKind 抓取失败的机器可判别原因
type FetchErrorKind string

const (
	FetchErrNetwork FetchErrorKind = "network"
	FetchErrTimeout FetchErrorKind = "timeout"
	FetchErrParse   FetchErrorKind = "parse"
)

// FetchError 带原因分类的抓取错误
type FetchError struct {
	Kind FetchErrorKind
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func classifyFetchError(err error) FetchErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FetchErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return FetchErrTimeout
		}
		return FetchErrNetwork
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return FetchErrNetwork
	}
	// gofeed对HTTP错误码和坏XML都返回普通error,归为解析类
	return FetchErrParse
}

// Fetcher RSS/Atom抓取原语,带单次超时
type Fetcher struct {
	parser  *gofeed.Parser
	timeout time.Duration
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		parser:  gofeed.NewParser(),
		timeout: timeout,
	}
}

// Fetch 抓取并解析一个订阅源,错误带Kind分类
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]*gofeed.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	parsed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, &FetchError{Kind: classifyFetchError(err), URL: feedURL, Err: err}
	}
	return parsed.Items, nil
}
