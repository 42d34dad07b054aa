package scraper

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultUserAgent is the desktop Chrome identity presented to the court site.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ImageFetcher downloads a CAPTCHA image referenced by URL.
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
}

// RestyImageFetcher fetches images with browser-like headers.
type RestyImageFetcher struct {
	client *resty.Client
}

// NewRestyImageFetcher creates a fetcher that presents userAgent.
func NewRestyImageFetcher(userAgent string, timeout time.Duration) *RestyImageFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeaders(map[string]string{
			"User-Agent":      userAgent,
			"Accept":          "image/avif,image/webp,image/apng,image/*,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.5",
			"Connection":      "keep-alive",
		})
	return &RestyImageFetcher{client: client}
}

func (f *RestyImageFetcher) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(imageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch captcha image: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("captcha image request returned %s", resp.Status())
	}
	if len(resp.Body()) == 0 {
		return nil, fmt.Errorf("captcha image at %s is empty", imageURL)
	}
	return resp.Body(), nil
}

// captchaDataURI turns an img src into a PNG data URI. Inline data URIs are
// re-wrapped as-is; anything else is resolved against pageURL and downloaded.
func captchaDataURI(ctx context.Context, fetcher ImageFetcher, src, pageURL string) (string, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", fmt.Errorf("captcha image has no src")
	}

	if strings.HasPrefix(src, "data:") {
		_, payload, ok := strings.Cut(src, ",")
		if !ok || payload == "" {
			return "", fmt.Errorf("captcha data uri has no payload")
		}
		return "data:image/png;base64," + payload, nil
	}

	imageURL, err := resolveURL(pageURL, src)
	if err != nil {
		return "", err
	}
	body, err := fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(body), nil
}

func resolveURL(base, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", ref, err)
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}
	return b.ResolveReference(r).String(), nil
}
