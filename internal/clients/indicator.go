package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

const (
	indicatorTimeout     = 15 * time.Second
	indicatorSearchQuery = "BOLL"
	indicatorSearchDelay = time.Second
)

var (
	// panel toggles in both chart locales
	indicatorPanelSelectors = []string{
		`button[aria-label="Indicators"]`,
		`button[aria-label="指标"]`,
		`//*[normalize-space(text())="指标"]`,
		`//*[normalize-space(text())="Indicators"]`,
	}

	indicatorSearchSelector = `input[placeholder*="搜索"], input[placeholder*="Search"]`

	// tried in order; the first visible match is clicked
	indicatorEntrySelectors = []string{
		`//*[normalize-space(text())="BOLL"]`,
		`//*[normalize-space(text())="布林带"]`,
		`//*[normalize-space(text())="Bollinger"]`,
		`//*[normalize-space(text())="Bollinger Bands"]`,
	}
)

// EnableIndicator opens the chart's indicator panel, searches for BOLL,
// clicks the first matching entry and closes the panel so the legend is
// visible. Every step after opening the panel is best effort.
func (b *BrowserClient) EnableIndicator(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(b.ctx, indicatorTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	opened, err := clickFirst(runCtx, indicatorPanelSelectors)
	if err != nil {
		return fmt.Errorf("failed to open indicator panel: %w", err)
	}
	if !opened {
		return fmt.Errorf("indicator panel not found")
	}

	var inputs []*cdp.Node
	if err := chromedp.Run(runCtx, chromedp.Nodes(indicatorSearchSelector, &inputs, chromedp.ByQueryAll, chromedp.AtLeast(0))); err == nil && len(inputs) > 0 {
		if err := chromedp.Run(runCtx,
			chromedp.SendKeys([]cdp.NodeID{inputs[0].NodeID}, indicatorSearchQuery, chromedp.ByNodeID),
			chromedp.Sleep(indicatorSearchDelay),
		); err != nil {
			b.logger.Debug("Indicator search failed", "error", err)
		}
	}

	clicked, err := clickFirst(runCtx, indicatorEntrySelectors)
	if err != nil {
		b.logger.Debug("Indicator entry click failed", "error", err)
	}

	if err := chromedp.Run(runCtx, chromedp.KeyEvent(kb.Escape)); err != nil {
		b.logger.Debug("Failed to close indicator panel", "error", err)
	}

	if !clicked {
		return fmt.Errorf("BOLL entry not found in indicator panel")
	}

	b.logger.Info("BOLL indicator enabled")
	return nil
}

// clickFirst clicks the first node matching any selector, in order. It
// reports false when nothing matched.
func clickFirst(ctx context.Context, selectors []string) (bool, error) {
	var lastErr error
	for _, sel := range selectors {
		var nodes []*cdp.Node
		if err := chromedp.Run(ctx, chromedp.Nodes(sel, &nodes, chromedp.BySearch, chromedp.AtLeast(0))); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			lastErr = err
			continue
		}
		if len(nodes) == 0 {
			continue
		}
		if err := chromedp.Run(ctx, chromedp.MouseClickNode(nodes[0])); err != nil {
			lastErr = err
			continue
		}
		return true, nil
	}
	return false, lastErr
}
