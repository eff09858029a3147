package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ChromeConfig describes the lookup page and the browser that drives it
type ChromeConfig struct {
	URL              string
	InputSelector    string
	SubmitSelector   string
	PanelSelector    string
	PanelIdleClass   string
	PanelMaskedClass string
	ResultXPath      string
	Timeout          time.Duration
	PollInterval     time.Duration
	Headless         bool
	ExecPath         string
	UserAgent        string
}

// DefaultChromeConfig returns the selectors of the Taoyuan lookup page
func DefaultChromeConfig() ChromeConfig {
	return ChromeConfig{
		URL:              "https://addressrs.moi.gov.tw/address/index.cfm?city_id=68000",
		InputSelector:    "#FreeText_ADDR",
		SubmitSelector:   "#ext-comp-1010",
		PanelSelector:    "#ext-gen97",
		PanelIdleClass:   "x-panel-bwrap",
		PanelMaskedClass: "x-panel-bwrap x-masked-relative x-masked",
		ResultXPath:      `//*[@id="ext-gen107"]/div/table/tbody/tr/td[2]/div`,
		Timeout:          20 * time.Second,
		PollInterval:     200 * time.Millisecond,
		Headless:         true,
	}
}

const healthCheckTimeout = 5 * time.Second

type chromeSession struct {
	cfg         ChromeConfig
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      *zap.Logger
}

// NewChromeSessionFactory returns a factory launching one headless Chrome
// per session
func NewChromeSessionFactory(cfg ChromeConfig, logger *zap.Logger) SessionFactory {
	return func(ctx context.Context) (Session, error) {
		return newChromeSession(cfg, logger)
	}
}

func newChromeSession(cfg ChromeConfig, logger *zap.Logger) (*chromeSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-ipc-flooding-protection", true),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	// the browser outlives the request that happened to open it
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	sugar := logger.Sugar()
	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Warnf),
	)

	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	return &chromeSession{
		cfg:         cfg,
		ctx:         browserCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		logger:      logger,
	}, nil
}

// Search submits address on the lookup page and reads the first result row
func (s *chromeSession) Search(ctx context.Context, address string) (LookupResult, error) {
	start := time.Now()

	err := s.step(ctx, "submit",
		chromedp.Navigate(s.cfg.URL),
		chromedp.WaitVisible(s.cfg.InputSelector, chromedp.ByQuery),
		chromedp.Clear(s.cfg.InputSelector, chromedp.ByQuery),
		chromedp.SendKeys(s.cfg.InputSelector, address, chromedp.ByQuery),
		chromedp.Click(s.cfg.SubmitSelector, chromedp.ByQuery),
	)
	if err != nil {
		return LookupResult{}, err
	}

	// the result panel is masked while the query runs
	if err := s.waitClassChange(ctx, s.cfg.PanelIdleClass); err != nil {
		return LookupResult{}, err
	}
	if err := s.waitClassChange(ctx, s.cfg.PanelMaskedClass); err != nil {
		return LookupResult{}, err
	}

	var nodes []*cdp.Node
	if err := s.step(ctx, "result", chromedp.Nodes(s.cfg.ResultXPath, &nodes, chromedp.BySearch, chromedp.AtLeast(0))); err != nil {
		return LookupResult{}, err
	}

	var text string
	if len(nodes) > 0 {
		if err := s.step(ctx, "result text", chromedp.Text([]cdp.NodeID{nodes[0].NodeID}, &text, chromedp.ByNodeID)); err != nil {
			return LookupResult{}, err
		}
	}

	result := resultFromCell(address, text, len(nodes) > 0)
	if !result.Found {
		s.logger.Info("Result element not found", zap.String("shortened", address))
		return result, nil
	}
	s.logger.Info("Search result found",
		zap.String("shortened", address),
		zap.String("matched", result.Matched),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

// resultFromCell turns the first result cell into a lookup result. A missing
// or blank cell means the site has no match.
func resultFromCell(address, text string, present bool) LookupResult {
	text = strings.TrimSpace(text)
	if !present || text == "" {
		return NotFound(address)
	}
	return Matched(address, text)
}

func (s *chromeSession) waitClassChange(ctx context.Context, from string) error {
	read := func(ctx context.Context) (string, bool, error) {
		var class string
		var ok bool
		err := s.step(ctx, "panel class", chromedp.AttributeValue(s.cfg.PanelSelector, "class", &class, &ok, chromedp.ByQuery))
		return class, ok, err
	}
	if err := waitForClassChange(ctx, from, s.cfg.Timeout, s.cfg.PollInterval, read); err != nil {
		if errors.Is(err, ErrTimeout) {
			return fmt.Errorf("%w (%s)", err, s.cfg.PanelSelector)
		}
		return err
	}
	return nil
}

// waitForClassChange polls read until the class attribute differs from
// from, bounded by timeout
func waitForClassChange(ctx context.Context, from string, timeout, poll time.Duration,
	read func(context.Context) (string, bool, error)) error {
	if poll <= 0 {
		poll = DefaultChromeConfig().PollInterval
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	deadline := time.Now().Add(timeout)

	for {
		class, ok, err := read(ctx)
		if err != nil {
			return err
		}
		if ok && class != from {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: class stayed %q", ErrTimeout, from)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// step runs actions on the tab with the configured timeout. The caller's
// context only cancels; the tab itself belongs to the session.
func (s *chromeSession) step(ctx context.Context, name string, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, s.cfg.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	return classifyStepError(name, s.ctx.Err(), ctx.Err(), err)
}

// classifyStepError maps a failed browser step onto the oracle errors.
// sessionErr is the browser context's state and callerErr the request's.
func classifyStepError(name string, sessionErr, callerErr, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case sessionErr != nil:
		return fmt.Errorf("%w: browser closed during %s: %w", ErrUnavailable, name, err)
	case callerErr != nil:
		return callerErr
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s", ErrTimeout, name)
	}
	return fmt.Errorf("%s: %w", name, err)
}

// Alive reports whether the browser still answers
func (s *chromeSession) Alive(ctx context.Context) bool {
	if s.ctx.Err() != nil {
		return false
	}
	checkCtx, cancel := context.WithTimeout(s.ctx, healthCheckTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var n int
	return chromedp.Run(checkCtx, chromedp.Evaluate(`1`, &n)) == nil
}

// Close shuts the tab and the browser process
func (s *chromeSession) Close() {
	s.cancel()
	s.allocCancel()
}
