package afip

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/mlerena/comprobantes/internal/domain"
)

const loginURL = "https://auth.afip.gob.ar/contribuyente_/login.xhtml"

// Credentials are the portal login credentials.
type Credentials struct {
	Username string
	Password string
}

// PortalFetcher drives the portal with a headless browser and downloads
// the received-comprobantes CSV export for the current month. It is
// best-effort glue around a third-party UI: selectors and timing are
// outside this system's contract, and every failure maps to
// domain.ErrSourceUnavailable.
type PortalFetcher struct {
	creds  Credentials
	logger zerolog.Logger
}

// NewPortalFetcher creates a fetcher for the given credentials.
func NewPortalFetcher(creds Credentials, logger zerolog.Logger) *PortalFetcher {
	return &PortalFetcher{creds: creds, logger: logger}
}

// Fetch logs in, opens "Mis Comprobantes", exports this month's received
// comprobantes as CSV and returns the decoded body of the single-entry
// zip archive.
func (f *PortalFetcher) Fetch(ctx context.Context) (string, error) {
	downloadDir, err := os.MkdirTemp("", "comprobantes-*")
	if err != nil {
		return "", fmt.Errorf("%w: creating download dir: %v", domain.ErrSourceUnavailable, err)
	}
	defer os.RemoveAll(downloadDir)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := f.login(browserCtx); err != nil {
		return "", fmt.Errorf("%w: login: %v", domain.ErrSourceUnavailable, err)
	}
	f.logger.Debug().Msg("portal login succeeded")

	// "Mis Comprobantes" opens in a new tab, so register the target
	// listener before triggering the navigation.
	targetCh := chromedp.WaitNewTarget(browserCtx, func(info *target.Info) bool {
		return info.Type == "page" && info.URL != ""
	})

	err = chromedp.Run(browserCtx,
		chromedp.SendKeys(`input#buscadorInput`, "Mis Comprobantes", chromedp.ByQuery),
		chromedp.Click(`li#rbt-menu-item-0`, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("%w: opening Mis Comprobantes: %v", domain.ErrSourceUnavailable, err)
	}

	var targetID target.ID
	select {
	case targetID = <-targetCh:
	case <-browserCtx.Done():
		return "", fmt.Errorf("%w: waiting for Mis Comprobantes tab: %v",
			domain.ErrSourceUnavailable, browserCtx.Err())
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx, chromedp.WithTargetID(targetID))
	defer cancelTab()

	archivePath, err := f.downloadExport(tabCtx, downloadDir)
	if err != nil {
		return "", fmt.Errorf("%w: downloading export: %v", domain.ErrSourceUnavailable, err)
	}

	data, err := os.ReadFile(archivePath)
	if err != nil {
		return "", fmt.Errorf("%w: reading export: %v", domain.ErrSourceUnavailable, err)
	}

	return ExtractCSV(data)
}

func (f *PortalFetcher) login(ctx context.Context) error {
	return chromedp.Run(ctx,
		chromedp.Navigate(loginURL),
		chromedp.SendKeys(`input[name="F1:username"]`, f.creds.Username, chromedp.ByQuery),
		chromedp.Click(`input[name="F1:btnSiguiente"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="F1:password"]`, f.creds.Password, chromedp.ByQuery),
		chromedp.Click(`input[name="F1:btnIngresar"]`, chromedp.ByQuery),
	)
}

// downloadExport selects this month's received comprobantes and exports
// them as CSV, returning the path of the downloaded archive.
func (f *PortalFetcher) downloadExport(ctx context.Context, dir string) (string, error) {
	done := make(chan string, 1)
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if e, ok := ev.(*browser.EventDownloadProgress); ok &&
			e.State == browser.DownloadProgressStateCompleted {
			select {
			case done <- e.GUID:
			default:
			}
		}
	})

	err := chromedp.Run(ctx,
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllowAndName).
			WithDownloadPath(dir).
			WithEventsEnabled(true),
		chromedp.Click(`a#btnRecibidos`, chromedp.ByQuery),
		chromedp.Click(`input#fechaEmision`, chromedp.ByQuery),
		chromedp.Click(`li[data-range-key="Este Mes"]`, chromedp.ByQuery),
		chromedp.Click(`button#buscarComprobantes`, chromedp.ByQuery),
		chromedp.Click(`button[title="Exportar como CSV"]`, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}

	select {
	case guid := <-done:
		return filepath.Join(dir, guid), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
