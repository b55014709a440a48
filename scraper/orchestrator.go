package scraper

import (
	"context"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"

	"propshot/apperr"
	"propshot/config"
	"propshot/httputil"
)

// Orchestrator runs the full acquisition flow: authenticate, render the
// normalized listing page in a browser context, harvest, and map delivery
// URLs back to their canonical CDN form. Browser-driven steps block the
// calling goroutine; a semaphore bounds concurrent contexts so browser
// processes cannot grow without limit.
type Orchestrator struct {
	cfg      *config.Config
	clients  *httputil.Clients
	resolver *Resolver

	auth        *Authenticator
	browserAuth *BrowserAuthenticator
	harvester   *Harvester

	rootDomain string
	sem        chan struct{}

	mu          sync.Mutex
	pw          *playwright.Playwright
	browser     playwright.Browser
	initialized bool
}

func NewOrchestrator(cfg *config.Config, clients *httputil.Clients) *Orchestrator {
	site := cfg.Site
	return &Orchestrator{
		cfg:         cfg,
		clients:     clients,
		resolver:    NewResolver(site.CDNOrigin, site.AdminPrefix),
		auth:        NewAuthenticator(site, cfg.Credentials, clients),
		browserAuth: NewBrowserAuthenticator(site, cfg.Credentials, clients),
		harvester:   NewHarvester(site, cfg.DownloadDir),
		rootDomain:  rootDomain(site.BaseURL),
		sem:         make(chan struct{}, cfg.MaxBrowsers),
	}
}

func (o *Orchestrator) Resolver() *Resolver { return o.resolver }

// Acquire harvests one listing and returns canonical image URLs in harvest
// order.
func (o *Orchestrator) Acquire(ctx context.Context, listingURL string) ([]string, error) {
	if err := o.validateListingURL(listingURL); err != nil {
		return nil, err
	}
	target := o.resolver.NormalizeDownloadTarget(listingURL)
	log.Printf("Acquire: %s -> %s", listingURL, target)

	select {
	case o.sem <- struct{}{}:
		defer func() { <-o.sem }()
	case <-ctx.Done():
		return nil, apperr.Wrap(ctx.Err(), apperr.KindAcquisition, "waiting for browser slot")
	}

	if err := o.ensureBrowser(); err != nil {
		return nil, apperr.Wrap(err, apperr.KindAcquisition, "start browser")
	}

	if err := o.login(ctx); err != nil {
		return nil, err
	}

	candidates, err := o.harvest(target)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, apperr.New(apperr.KindNotFound, "no images found in listing")
	}

	urls := make([]string, len(candidates))
	for i, c := range candidates {
		urls[i] = o.resolver.StripToCDNOrigin(c.URL)
	}
	return urls, nil
}

// login tries the primary HTTP path, then the browser fallback exactly once.
func (o *Orchestrator) login(ctx context.Context) error {
	err := o.auth.Login(ctx)
	if err == nil {
		return nil
	}
	log.Printf("Primary login failed (%v), trying browser fallback", err)

	browserCtx, err := o.newContext()
	if err != nil {
		return apperr.Wrap(err, apperr.KindAuthFailed, "create browser context")
	}
	defer browserCtx.Close()

	if err := o.browserAuth.Login(browserCtx); err != nil {
		return apperr.New(apperr.KindAuthFailed, "all login strategies exhausted")
	}
	return nil
}

// harvest renders the listing page in a context seeded with the session
// cookies and runs the extraction passes.
func (o *Orchestrator) harvest(target string) ([]Candidate, error) {
	browserCtx, err := o.newContext()
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindAcquisition, "create browser context")
	}
	defer browserCtx.Close()

	o.seedCookies(browserCtx)

	page, err := browserCtx.NewPage()
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindAcquisition, "open page")
	}

	if _, err := page.Goto(target, playwright.PageGotoOptions{
		Timeout:   playwright.Float(60000),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return nil, apperr.Wrap(err, apperr.KindAcquisition, "navigate to %s", target)
	}
	page.WaitForTimeout(float64(o.cfg.Site.PageLoadWaitMS))

	return o.harvester.Harvest(page)
}

func (o *Orchestrator) validateListingURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return apperr.New(apperr.KindInvalidInput, "malformed listing URL %q", raw)
	}
	if !strings.HasSuffix(parsed.Hostname(), o.rootDomain) {
		return apperr.New(apperr.KindInvalidInput, "listing URL must be on the %s domain", o.rootDomain)
	}
	return nil
}

func (o *Orchestrator) ensureBrowser() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.initialized {
		return nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return err
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(o.cfg.Site.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		pw.Stop()
		return err
	}

	o.pw = pw
	o.browser = browser
	o.initialized = true
	return nil
}

func (o *Orchestrator) newContext() (playwright.BrowserContext, error) {
	return o.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	})
}

// seedCookies copies the HTTP session cookies into a fresh browser context so
// the rendered listing page is served authenticated.
func (o *Orchestrator) seedCookies(browserCtx playwright.BrowserContext) {
	base, err := url.Parse(o.cfg.Site.BaseURL)
	if err != nil {
		return
	}

	var optional []playwright.OptionalCookie
	for _, c := range o.clients.Jar.Cookies(base) {
		optional = append(optional, playwright.OptionalCookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: playwright.String("." + o.rootDomain),
			Path:   playwright.String("/"),
		})
	}
	if len(optional) == 0 {
		return
	}
	if err := browserCtx.AddCookies(optional); err != nil {
		log.Printf("Acquire: seeding cookies failed: %v", err)
	}
}

func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.browser != nil {
		o.browser.Close()
	}
	if o.pw != nil {
		o.pw.Stop()
	}
	o.initialized = false
}

// rootDomain reduces app.aryeo.com to aryeo.com so subdomain hosts validate.
func rootDomain(baseURL string) string {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}
	host := parsed.Hostname()
	parts := strings.Split(host, ".")
	if len(parts) > 2 {
		return strings.Join(parts[len(parts)-2:], ".")
	}
	return host
}
