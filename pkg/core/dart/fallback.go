package dart

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// majorCompanies is the last-resort lookup table used when both the corp-code
// index and the filing-viewer scrape are unreachable.
var majorCompanies = map[string]Company{
	"삼성전자":   {Name: "삼성전자주식회사", CorpCode: "00126380", StockCode: "005930"},
	"LG전자":   {Name: "엘지전자주식회사", CorpCode: "00401731", StockCode: "066570"},
	"현대자동차":  {Name: "현대자동차주식회사", CorpCode: "00164779", StockCode: "005380"},
	"SK하이닉스": {Name: "에스케이하이닉스주식회사", CorpCode: "00164742", StockCode: "000660"},
	"네이버":    {Name: "네이버주식회사", CorpCode: "00401517", StockCode: "035420"},
	"카카오":    {Name: "주식회사카카오", CorpCode: "00401062", StockCode: "035720"},
}

// searchFallback tries the filing-viewer company search page, then the
// built-in major-company table. It never returns an error; an empty result
// means the caller should surface the original failure.
func (c *Client) searchFallback(ctx context.Context, name string) *SearchResult {
	if res := c.scrapeViewerSearch(ctx, name); res.Found() {
		return res
	}

	if corp, ok := majorCompanies[name]; ok {
		return &SearchResult{Match: &corp}
	}
	var candidates []Company
	for key, corp := range majorCompanies {
		if strings.Contains(key, name) || strings.Contains(name, key) {
			candidates = append(candidates, corp)
		}
	}
	return &SearchResult{Candidates: candidates}
}

// scrapeViewerSearch parses the public DART filing-viewer search results.
// The viewer markup carries the corp code in each row's openCorpInfo link.
func (c *Client) scrapeViewerSearch(ctx context.Context, name string) *SearchResult {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"textCrpNm":   name,
			"currentPage": "1",
		}).
		Get(c.viewerURL + "/dsab007/detailSearch.ax")
	if err != nil || resp.StatusCode() != 200 {
		return &SearchResult{}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return &SearchResult{}
	}

	res := &SearchResult{}
	doc.Find("table.tbList tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		link := row.Find("td.tL a").First()
		corpName := strings.TrimSpace(link.Text())
		if corpName == "" {
			return true
		}
		href, _ := link.Attr("href")
		corp := Company{Name: corpName, CorpCode: extractCorpCode(href), StockCode: "N/A"}
		if corp.CorpCode == "" {
			return true
		}
		if corpName == name && res.Match == nil {
			res.Match = &corp
		}
		if len(res.Candidates) < 5 {
			res.Candidates = append(res.Candidates, corp)
		}
		return len(res.Candidates) < 5
	})
	if res.Match != nil {
		res.Candidates = nil
	}
	return res
}

// extractCorpCode pulls the 8-digit corp code out of an openCorpInfo href.
func extractCorpCode(href string) string {
	start := strings.Index(href, "openCorpInfo('")
	if start < 0 {
		return ""
	}
	start += len("openCorpInfo('")
	end := strings.Index(href[start:], "'")
	if end < 0 {
		return ""
	}
	return href[start : start+end]
}
