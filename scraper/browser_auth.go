package scraper

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"propshot/apperr"
	"propshot/config"
	"propshot/httputil"
)

// BrowserAuthenticator is the fallback login strategy: it drives a real
// browser context through the login form, which survives markup the plain
// HTTP path cannot handle (script-injected fields, multi-step forms).
type BrowserAuthenticator struct {
	site    *config.SiteConfig
	creds   config.CredentialsConfig
	clients *httputil.Clients
}

func NewBrowserAuthenticator(site *config.SiteConfig, creds config.CredentialsConfig, clients *httputil.Clients) *BrowserAuthenticator {
	return &BrowserAuthenticator{site: site, creds: creds, clients: clients}
}

// locateVisible walks an ordered selector ladder and returns the first
// visible match.
func locateVisible(page playwright.Page, selectors []string) (playwright.Locator, string) {
	for _, sel := range selectors {
		loc := page.Locator(sel).First()
		if visible, _ := loc.IsVisible(); visible {
			return loc, sel
		}
	}
	return nil, ""
}

// locatePassword runs the password ladder, then falls back to a manual
// interaction probe: advancing focus out of the email field can surface a
// password input that is injected only after the email step.
func (b *BrowserAuthenticator) locatePassword(page playwright.Page, email playwright.Locator) (playwright.Locator, string) {
	if loc, sel := locateVisible(page, b.site.PasswordSelectors); loc != nil {
		return loc, sel
	}

	log.Println("Password field not found; probing with a field-advance keystroke")
	if email != nil {
		email.Click()
		page.WaitForTimeout(500)
		email.Press("Tab")
		page.WaitForTimeout(1000)
	}

	loc := page.Locator("input[type='password']").First()
	if visible, _ := loc.IsVisible(); visible {
		return loc, "input[type='password'] (after probe)"
	}
	return nil, ""
}

// Login performs the browser-driven login inside an existing browser context.
// On success the browser's cookies are copied into the HTTP client's jar so
// harvesting can proceed without the browser holding the session.
func (b *BrowserAuthenticator) Login(browserCtx playwright.BrowserContext) error {
	page, err := browserCtx.NewPage()
	if err != nil {
		return apperr.Wrap(err, apperr.KindAuthFailed, "open login page")
	}
	defer page.Close()

	if _, err := page.Goto(b.site.LoginURL, playwright.PageGotoOptions{
		Timeout:   playwright.Float(30000),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return apperr.Wrap(err, apperr.KindAuthFailed, "navigate to login page")
	}
	page.WaitForTimeout(2000)

	emailField, emailSel := locateVisible(page, b.site.EmailSelectors)
	if emailField == nil {
		return apperr.New(apperr.KindAuthFailed, "no email field matched any selector")
	}
	log.Printf("Email field located via %s", emailSel)

	emailField.Clear()
	emailField.Fill(b.creds.Email)

	// Two-step forms gate the password behind an email submit.
	if loc, _ := locateVisible(page, b.site.PasswordSelectors); loc == nil {
		if btn, _ := locateVisible(page, b.site.SubmitSelectors); btn != nil {
			btn.Click()
			page.WaitForTimeout(2000)
		}
	}

	passwordField, passSel := b.locatePassword(page, emailField)
	if passwordField == nil {
		return apperr.New(apperr.KindAuthFailed, "no password field matched any selector or probe")
	}
	log.Printf("Password field located via %s", passSel)

	passwordField.Clear()
	passwordField.Fill(b.creds.Password)

	// Submit via a located button, or fall back to submit-by-keystroke.
	if btn, btnSel := locateVisible(page, b.site.SubmitSelectors); btn != nil {
		log.Printf("Submitting via %s", btnSel)
		btn.Click()
	} else {
		log.Println("No submit button found; pressing Enter in password field")
		passwordField.Press("Enter")
	}

	if !b.awaitAuthenticated(page) {
		return apperr.New(apperr.KindAuthFailed, "login did not leave %s within wait budget", b.site.LoginRoute)
	}

	if err := b.transferCookies(browserCtx); err != nil {
		return apperr.Wrap(err, apperr.KindAuthFailed, "transfer browser cookies")
	}

	log.Printf("Browser login succeeded (current URL: %s)", page.URL())
	return nil
}

// awaitAuthenticated polls until the location leaves the login route or
// authenticated markers appear in the rendered document, within a fixed
// wait budget.
func (b *BrowserAuthenticator) awaitAuthenticated(page playwright.Page) bool {
	budget := time.Duration(b.site.LoginWaitMS) * time.Millisecond
	deadline := time.Now().Add(budget)

	for time.Now().Before(deadline) {
		page.WaitForTimeout(500)

		if !strings.Contains(strings.ToLower(page.URL()), b.site.LoginRoute) {
			return true
		}

		content, err := page.Content()
		if err != nil {
			continue
		}
		lower := strings.ToLower(content)
		for _, marker := range b.site.AuthMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

func (b *BrowserAuthenticator) transferCookies(browserCtx playwright.BrowserContext) error {
	cookies, err := browserCtx.Cookies()
	if err != nil {
		return err
	}

	converted := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		converted = append(converted, &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
			Secure: c.Secure,
		})
	}

	b.clients.SetCookies(b.site.BaseURL, converted)
	log.Printf("Transferred %d cookies to HTTP client", len(converted))
	return nil
}
