package httputil

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Clients bundles the two HTTP clients the service needs: a cookie-jarred
// client that impersonates a browser against the target site, and a plain
// client for CDN image fetches.
type Clients struct {
	Scraping *resty.Client
	Images   *resty.Client

	// Jar is the scraping client's cookie store; the browser-login fallback
	// copies its cookies in here so harvest calls reuse the session.
	Jar *cookiejar.Jar
}

func NewClients() (*Clients, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	scraping := resty.New().
		SetCookieJar(jar).
		SetTimeout(30 * time.Second).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeader("User-Agent", browserUA).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		SetHeader("Upgrade-Insecure-Requests", "1")

	images := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", browserUA).
		SetHeader("Accept", "image/*,*/*")

	return &Clients{
		Scraping: scraping,
		Images:   images,
		Jar:      jar,
	}, nil
}

// ResetJar discards all cookies ahead of a fresh login attempt.
func (c *Clients) ResetJar() {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return
	}
	c.Jar = jar
	c.Scraping.SetCookieJar(jar)
}

// SetCookies injects cookies (e.g. from a browser context) into the scraping jar.
func (c *Clients) SetCookies(rawURL string, cookies []*http.Cookie) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return
	}
	c.Jar.SetCookies(u, cookies)
}
