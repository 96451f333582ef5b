// Package eighta fetches and normalizes a climber's ascents from 8a.nu.
//
// 8a.nu has no public export. The gateway logs in with a headless browser
// and calls the site's own ascents endpoint from inside the authenticated
// page, one request per category (routes, boulders).
package eighta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/albapepper/cruxlog/internal/pipeline"
)

// DefaultBaseURL is the public 8a.nu site.
const DefaultBaseURL = "https://www.8a.nu"

// Ascent categories as used by the 8a.nu API.
const (
	CategoryRoute   = 0
	CategoryBoulder = 1
)

// ErrMissingLogin is returned when credentials lack a username or password.
var ErrMissingLogin = errors.New("8a.nu requires username and password")

// Config controls the browser session.
type Config struct {
	BaseURL    string
	ControlURL string // connect to a running Chrome instead of launching one
	Headless   bool
	Timeout    time.Duration
	PageSize   int
}

// Gateway fetches ascents through a browser session.
type Gateway struct {
	cfg    Config
	logger *slog.Logger
}

// NewGateway creates an 8a.nu gateway.
func NewGateway(cfg Config, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 2000
	}
	return &Gateway{cfg: cfg, logger: logger}
}

// Fetch logs in and downloads every ascent of the user.
func (g *Gateway) Fetch(ctx context.Context, creds pipeline.Credentials) (pipeline.RawBatch, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, ErrMissingLogin
	}
	slug := UserSlug(creds)

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	browser, cleanup, err := g.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	page, err := browser.Page(proto.TargetCreateTarget{URL: g.cfg.BaseURL + "/login"})
	if err != nil {
		return nil, fmt.Errorf("open login page: %w", err)
	}
	defer page.Close()

	if err := g.login(page, creds); err != nil {
		return nil, err
	}

	var all Ascents
	for _, category := range []int{CategoryRoute, CategoryBoulder} {
		batch, err := g.ascents(page, slug, category)
		if err != nil {
			return nil, err
		}
		all.Items = append(all.Items, batch...)
	}
	all.UserSlug = slug

	g.logger.Info("8a.nu ascents fetched", "user", slug, "rows", all.Len())
	return &all, nil
}

func (g *Gateway) connect(ctx context.Context) (*rod.Browser, func(), error) {
	controlURL := g.cfg.ControlURL
	var l *launcher.Launcher
	if controlURL == "" {
		l = launcher.New().Headless(g.cfg.Headless)
		u, err := l.Launch()
		if err != nil {
			return nil, nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		if l != nil {
			l.Cleanup()
		}
		return nil, nil, fmt.Errorf("connect to chrome: %w", err)
	}

	cleanup := func() {
		_ = browser.Close()
		if l != nil {
			l.Cleanup()
		}
	}
	return browser, cleanup, nil
}

func (g *Gateway) login(page *rod.Page, creds pipeline.Credentials) error {
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("load login page: %w", err)
	}

	user, err := page.Element("input[name=username]")
	if err != nil {
		return fmt.Errorf("find username field: %w", err)
	}
	if err := user.Input(creds.Username); err != nil {
		return fmt.Errorf("enter username: %w", err)
	}

	pass, err := page.Element("input[name=password]")
	if err != nil {
		return fmt.Errorf("find password field: %w", err)
	}
	if err := pass.Input(creds.Password); err != nil {
		return fmt.Errorf("enter password: %w", err)
	}

	submit, err := page.Element("input[type=submit], button[type=submit]")
	if err != nil {
		return fmt.Errorf("find login button: %w", err)
	}
	wait := page.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}
	wait()

	if info, err := page.Info(); err == nil && strings.Contains(info.URL, "/login") {
		return errors.New("8a.nu login rejected")
	}
	return nil
}

const ascentsJS = `async (path) => {
	const resp = await fetch(path, {credentials: "include"});
	if (!resp.ok) {
		throw new Error("ascents request failed: " + resp.status);
	}
	return await resp.text();
}`

// maxPages bounds paging against a server that ignores pageIndex.
const maxPages = 500

// pageFunc returns the raw body of one ascents request path.
type pageFunc func(path string) ([]byte, error)

func (g *Gateway) ascents(page *rod.Page, slug string, category int) ([]Ascent, error) {
	fetch := func(path string) ([]byte, error) {
		res, err := page.Evaluate(&rod.EvalOptions{
			JS:           ascentsJS,
			JSArgs:       []interface{}{path},
			AwaitPromise: true,
			ByValue:      true,
		})
		if err != nil {
			return nil, err
		}
		return []byte(res.Value.Str()), nil
	}
	return collectAscents(fetch, slug, category, g.cfg.PageSize)
}

// collectAscents pages through one category, newest first, until a short
// page comes back.
func collectAscents(fetch pageFunc, slug string, category, pageSize int) ([]Ascent, error) {
	var all []Ascent
	for idx := 0; idx < maxPages; idx++ {
		body, err := fetch(ascentsPath(slug, category, idx, pageSize))
		if err != nil {
			return nil, fmt.Errorf("fetch ascents category %d page %d: %w", category, idx, err)
		}
		items, err := ParseAscents(body)
		if err != nil {
			return nil, fmt.Errorf("category %d page %d: %w", category, idx, err)
		}
		all = append(all, items...)
		if len(items) < pageSize {
			return all, nil
		}
	}
	return nil, fmt.Errorf("category %d: more than %d pages of ascents", category, maxPages)
}

func ascentsPath(slug string, category, pageIndex, pageSize int) string {
	q := url.Values{}
	q.Set("category", fmt.Sprint(category))
	q.Set("pageIndex", fmt.Sprint(pageIndex))
	q.Set("pageSize", fmt.Sprint(pageSize))
	q.Set("sortField", "date_desc")
	q.Set("timeFilter", "0")
	return fmt.Sprintf("/unification/ascent/v1/web/users/%s/ascents?%s", url.PathEscape(slug), q.Encode())
}

// UserSlug returns the 8a.nu user slug from a profile URL such as
// https://www.8a.nu/user/adam-ondra, falling back to the username.
func UserSlug(creds pipeline.Credentials) string {
	if u, err := url.Parse(creds.ProfileURL); err == nil {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := 0; i+1 < len(parts); i++ {
			if parts[i] == "user" && parts[i+1] != "" {
				return parts[i+1]
			}
		}
	}
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(creds.Username), " ", "-"))
}

// ParseAscents decodes one ascents response body.
func ParseAscents(data []byte) ([]Ascent, error) {
	var resp struct {
		Ascents []Ascent `json:"ascents"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode ascents: %w", err)
	}
	return resp.Ascents, nil
}
