package dart

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"finaudit/pkg/core/faults"
)

const (
	defaultBaseURL   = "https://opendart.fss.or.kr/api"
	defaultViewerURL = "https://dart.fss.or.kr"

	// Annual report (사업보고서), consolidated statements.
	reportCodeAnnual  = "11011"
	fsDivConsolidated = "CFS"
)

// Client talks to the DART open API. The corp-code index is downloaded once
// and kept in memory for the lifetime of the client.
type Client struct {
	apiKey    string
	baseURL   string
	viewerURL string
	http      *resty.Client

	mu    sync.Mutex
	index []Company
}

// NewClient creates a DART client. The upstream is treated as unreliable:
// every call has a 15s timeout and is retried once before failing.
func NewClient(apiKey string) *Client {
	c := resty.New()
	c.SetTimeout(15 * time.Second)
	c.SetRetryCount(1)
	c.SetRetryWaitTime(2 * time.Second)
	return &Client{
		apiKey:    apiKey,
		baseURL:   defaultBaseURL,
		viewerURL: defaultViewerURL,
		http:      c,
	}
}

// SetBaseURL overrides the API endpoint, used by tests against a local server.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// SetViewerURL overrides the filing-viewer endpoint used by the scrape
// fallback.
func (c *Client) SetViewerURL(url string) {
	c.viewerURL = strings.TrimRight(url, "/")
}

// Search resolves a company name against the corp-code index. An exact name
// match wins; otherwise up to five substring candidates are returned. When
// the index cannot be downloaded, the filing-viewer scrape and the built-in
// major-company table serve as fallbacks.
func (c *Client) Search(ctx context.Context, name string) (*SearchResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, faults.NotFound("empty company name")
	}

	index, err := c.corpIndex(ctx)
	if err != nil {
		// Degrade through the fallbacks before reporting upstream failure.
		if res := c.searchFallback(ctx, name); res.Found() {
			return res, nil
		}
		return nil, faults.Upstream(err, "corp index unavailable for %q", name)
	}

	res := &SearchResult{}
	for _, corp := range index {
		if !strings.Contains(corp.Name, name) {
			continue
		}
		if corp.Name == name {
			match := corp
			res.Match = &match
		}
		if len(res.Candidates) < 5 {
			res.Candidates = append(res.Candidates, corp)
		}
	}
	if res.Match != nil {
		res.Candidates = nil
		return res, nil
	}
	if len(res.Candidates) > 0 {
		return res, nil
	}
	if fb := c.searchFallback(ctx, name); fb.Found() {
		return fb, nil
	}
	return nil, faults.NotFound("no company matching %q", name)
}

// FetchStatement retrieves the income-statement and balance-sheet line items
// for one business year. The endpoint returns all statements at once; the
// normalizer filters by section.
func (c *Client) FetchStatement(ctx context.Context, corpCode, year string) ([]RawLineItem, error) {
	return c.fetchAllAccounts(ctx, corpCode, year)
}

// FetchCashFlow retrieves the cash-flow statement line items for one year.
// It shares the single-account-all endpoint with FetchStatement.
func (c *Client) FetchCashFlow(ctx context.Context, corpCode, year string) ([]RawLineItem, error) {
	items, err := c.fetchAllAccounts(ctx, corpCode, year)
	if err != nil {
		return nil, err
	}
	var cf []RawLineItem
	for _, it := range items {
		if it.Section == SectionCashFlow {
			cf = append(cf, it)
		}
	}
	return cf, nil
}

func (c *Client) fetchAllAccounts(ctx context.Context, corpCode, year string) ([]RawLineItem, error) {
	var body fnlttResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"crtfc_key":  c.apiKey,
			"corp_code":  corpCode,
			"bsns_year":  year,
			"reprt_code": reportCodeAnnual,
			"fs_div":     fsDivConsolidated,
		}).
		SetResult(&body).
		Get(c.baseURL + "/fnlttSinglAcntAll.json")
	if err != nil {
		return nil, faults.Upstream(err, "statement fetch failed for corp %s year %s", corpCode, year)
	}
	if resp.StatusCode() != 200 {
		return nil, faults.Upstream(fmt.Errorf("status %d", resp.StatusCode()),
			"statement fetch failed for corp %s year %s", corpCode, year)
	}
	// DART signals "no data" with status 013.
	if body.Status != "000" || len(body.List) == 0 {
		return nil, faults.NotFound("no %s filing for corp %s: %s", year, corpCode, body.Message)
	}

	items := make([]RawLineItem, 0, len(body.List))
	for _, row := range body.List {
		items = append(items, RawLineItem{
			Section:     StatementSection(strings.TrimSpace(row.SjNm)),
			Account:     row.AccountNm,
			Amount:      row.ThstrmAmount,
			PriorAmount: row.FrmtrmAmount,
		})
	}
	return items, nil
}

// corpIndex downloads and caches the CORPCODE.xml zip archive.
func (c *Client) corpIndex(ctx context.Context) ([]Company, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index != nil {
		return c.index, nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("crtfc_key", c.apiKey).
		Get(c.baseURL + "/corpCode.xml")
	if err != nil {
		return nil, fmt.Errorf("corp code download failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("corp code download returned status %d", resp.StatusCode())
	}

	index, err := parseCorpIndex(resp.Body())
	if err != nil {
		return nil, err
	}
	c.index = index
	return index, nil
}

func parseCorpIndex(zipped []byte) ([]Company, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipped), int64(len(zipped)))
	if err != nil {
		return nil, fmt.Errorf("corp code archive unreadable: %w", err)
	}

	var xmlData []byte
	for _, f := range zr.File {
		if f.Name != "CORPCODE.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("corp code entry open failed: %w", err)
		}
		xmlData, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("corp code entry read failed: %w", err)
		}
		break
	}
	if xmlData == nil {
		return nil, fmt.Errorf("CORPCODE.xml missing from archive")
	}

	var doc struct {
		List []struct {
			CorpName  string `xml:"corp_name"`
			CorpCode  string `xml:"corp_code"`
			StockCode string `xml:"stock_code"`
		} `xml:"list"`
	}
	if err := xml.Unmarshal(xmlData, &doc); err != nil {
		return nil, fmt.Errorf("corp code xml parse failed: %w", err)
	}

	index := make([]Company, 0, len(doc.List))
	for _, row := range doc.List {
		stock := strings.TrimSpace(row.StockCode)
		if stock == "" {
			stock = "N/A"
		}
		index = append(index, Company{
			Name:      strings.TrimSpace(row.CorpName),
			CorpCode:  strings.TrimSpace(row.CorpCode),
			StockCode: stock,
		})
	}
	return index, nil
}
