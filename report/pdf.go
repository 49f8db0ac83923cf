package report

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"property-valuation/utils"
)

// PDFConfig controls the headless browser used for PDF output.
type PDFConfig struct {
	ChromeBin string
	Timeout   time.Duration
	Retry     *utils.RetryConfig
	Logger    *utils.Logger
}

// PDFRenderer prints the HTML report to PDF with headless Chrome.
type PDFRenderer struct {
	cfg  PDFConfig
	html *HTMLRenderer
}

func NewPDFRenderer(cfg PDFConfig) *PDFRenderer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ChromeBin == "" {
		cfg.ChromeBin = findChromeBinary()
	}
	if cfg.Logger == nil {
		cfg.Logger = utils.NewLogger()
	}
	if cfg.Retry == nil {
		cfg.Retry = &utils.RetryConfig{MaxAttempts: 1, Logger: cfg.Logger}
	}
	return &PDFRenderer{cfg: cfg, html: NewHTMLRenderer()}
}

func (r *PDFRenderer) ContentType() string { return "application/pdf" }
func (r *PDFRenderer) Extension() string   { return "pdf" }

func (r *PDFRenderer) Render(ctx context.Context, doc *Document) ([]byte, error) {
	markup, err := r.html.Render(ctx, doc)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "valuation-*.html")
	if err != nil {
		return nil, fmt.Errorf("report: stage html: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(markup); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("report: stage html: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("report: stage html: %w", err)
	}

	var pdf []byte
	err = r.cfg.Retry.Do(ctx, "pdf render", func() error {
		var printErr error
		pdf, printErr = r.print(ctx, "file://"+tmp.Name())
		return printErr
	})
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}

	r.cfg.Logger.Debug("[report] Rendered PDF for %s (%d bytes)", doc.ID, len(pdf))
	return pdf, nil
}

// print loads url in a fresh browser and returns it as A4 PDF.
func (r *PDFRenderer) print(ctx context.Context, url string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	if r.cfg.ChromeBin != "" {
		opts = append(opts, chromedp.ExecPath(r.cfg.ChromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, r.cfg.Timeout)
	defer cancelTimeout()

	var buf []byte
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			if err != nil {
				return err
			}
			buf = data
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	return buf, nil
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	for _, name := range []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	for _, p := range []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
