package scraper

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"propshot/apperr"
	"propshot/config"
	"propshot/httputil"
)

// AuthState tracks the login state machine:
// Unauthenticated -> CsrfAcquired -> Submitted -> {Authenticated | Failed}.
type AuthState int

const (
	StateUnauthenticated AuthState = iota
	StateCsrfAcquired
	StateSubmitted
	StateAuthenticated
	StateFailed
)

func (s AuthState) String() string {
	switch s {
	case StateCsrfAcquired:
		return "csrf_acquired"
	case StateSubmitted:
		return "submitted"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unauthenticated"
	}
}

var scriptTokenPattern = regexp.MustCompile(`(?i)csrf["']?\s*[:=]\s*["']([^"']+)["']`)

// tokenStrategy is one place the login page may expose its CSRF token.
// Strategies run in priority order; the first non-empty result wins.
type tokenStrategy struct {
	name string
	find func(doc *goquery.Document, cookies []*http.Cookie) string
}

var tokenStrategies = []tokenStrategy{
	{"hidden input", func(doc *goquery.Document, _ []*http.Cookie) string {
		val, _ := doc.Find("input[name='_token']").First().Attr("value")
		return val
	}},
	{"meta tag", func(doc *goquery.Document, _ []*http.Cookie) string {
		val, _ := doc.Find("meta[name='csrf-token']").First().Attr("content")
		return val
	}},
	{"inline script", func(doc *goquery.Document, _ []*http.Cookie) string {
		var token string
		doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if m := scriptTokenPattern.FindStringSubmatch(s.Text()); m != nil {
				token = m[1]
				return false
			}
			return true
		})
		return token
	}},
	{"XSRF cookie", func(_ *goquery.Document, cookies []*http.Cookie) string {
		for _, c := range cookies {
			if c.Name == "XSRF-TOKEN" {
				if decoded, err := url.QueryUnescape(c.Value); err == nil {
					return decoded
				}
				return c.Value
			}
		}
		return ""
	}},
}

// Authenticator drives the non-interactive HTTP login against the target site.
type Authenticator struct {
	site    *config.SiteConfig
	creds   config.CredentialsConfig
	clients *httputil.Clients
	state   AuthState
}

func NewAuthenticator(site *config.SiteConfig, creds config.CredentialsConfig, clients *httputil.Clients) *Authenticator {
	return &Authenticator{site: site, creds: creds, clients: clients}
}

func (a *Authenticator) State() AuthState { return a.state }

// fetchLoginPage grabs the login page and returns the discovered CSRF token.
// A missing token is not fatal; the target may not require one.
func (a *Authenticator) fetchLoginPage(ctx context.Context) (string, error) {
	resp, err := a.clients.Scraping.R().SetContext(ctx).Get(a.site.LoginURL)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return "", err
	}

	loginURL, _ := url.Parse(a.site.LoginURL)
	cookies := a.clients.Jar.Cookies(loginURL)

	for _, strat := range tokenStrategies {
		if token := strat.find(doc, cookies); token != "" {
			log.Printf("Found CSRF token via %s", strat.name)
			return token, nil
		}
	}

	log.Println("No CSRF token found on login page; proceeding without one")
	return "", nil
}

// checkIdentity is the out-of-band first phase: the confirmation endpoint must
// report an active admin account before credentials are submitted.
func (a *Authenticator) checkIdentity(ctx context.Context, token string) error {
	var result struct {
		Status          string `json:"status"`
		HasAdminAccount bool   `json:"has_admin_account"`
	}

	req := a.clients.Scraping.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("X-Requested-With", "XMLHttpRequest").
		SetHeader("Origin", a.site.BaseURL).
		SetHeader("Referer", a.site.LoginURL).
		SetBody(map[string]string{"email": a.creds.Email}).
		SetResult(&result)
	if token != "" {
		req.SetHeader("X-CSRF-TOKEN", token)
	}

	resp, err := req.Post(a.site.IdentityCheckURL)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return apperr.New(apperr.KindAuthFailed, "identity check returned status %d", resp.StatusCode())
	}
	if result.Status != "ACTIVE" || !result.HasAdminAccount {
		return apperr.New(apperr.KindAuthFailed, "identity check rejected account (status=%s, admin=%v)", result.Status, result.HasAdminAccount)
	}
	return nil
}

// Login runs the full primary sequence. On any failure the state lands on
// Failed and a single AuthenticationFailed error is returned.
func (a *Authenticator) Login(ctx context.Context) error {
	a.state = StateUnauthenticated
	a.clients.ResetJar()

	token, err := a.fetchLoginPage(ctx)
	if err != nil {
		a.state = StateFailed
		return apperr.Wrap(err, apperr.KindAuthFailed, "fetch login page")
	}
	a.state = StateCsrfAcquired

	if err := a.checkIdentity(ctx, token); err != nil {
		a.state = StateFailed
		if apperr.KindOf(err) == apperr.KindAuthFailed {
			return err
		}
		return apperr.Wrap(err, apperr.KindAuthFailed, "identity check")
	}

	req := a.clients.Scraping.R().
		SetContext(ctx).
		SetHeader("Referer", a.site.LoginURL).
		SetHeader("Origin", a.site.BaseURL).
		SetHeader("X-Requested-With", "XMLHttpRequest").
		SetFormData(map[string]string{
			"email":    a.creds.Email,
			"password": a.creds.Password,
		})
	if token != "" {
		req.SetHeader("X-CSRF-TOKEN", token)
		req.SetFormData(map[string]string{"_token": token})
	}

	resp, err := req.Post(a.site.LoginURL)
	a.state = StateSubmitted
	if err != nil {
		a.state = StateFailed
		return apperr.Wrap(err, apperr.KindAuthFailed, "submit credentials")
	}

	finalURL := a.site.LoginURL
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		finalURL = raw.Request.URL.String()
	}

	if a.evaluateResponse(finalURL, resp.String()) {
		a.state = StateAuthenticated
		log.Printf("Primary login succeeded (final URL: %s)", finalURL)
		return nil
	}

	a.state = StateFailed
	return apperr.New(apperr.KindAuthFailed, "credentials rejected or no authenticated markers in response")
}

// evaluateResponse decides Authenticated vs Failed: the final location must
// have left the login route and the body must carry at least one marker.
func (a *Authenticator) evaluateResponse(finalURL, body string) bool {
	lower := strings.ToLower(body)

	for _, marker := range a.site.FailureMarkers {
		if strings.Contains(lower, marker) {
			log.Printf("Login failure marker present: %q", marker)
			return false
		}
	}

	if strings.Contains(strings.ToLower(finalURL), a.site.LoginRoute) {
		return false
	}

	for _, marker := range a.site.AuthMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
