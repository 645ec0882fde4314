package dart

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchFallback_MajorCompanyTable(t *testing.T) {
	// Neither the corp index nor the viewer respond; the built-in table must
	// still resolve a major company.
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := newTestClient(t, srv)
	res, err := c.Search(context.Background(), "삼성전자")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Match == nil || res.Match.CorpCode != "00126380" {
		t.Errorf("match = %+v, want 삼성전자 from the major-company table", res.Match)
	}
}

func TestSearchFallback_ViewerScrape(t *testing.T) {
	viewerHTML := `
	<table class="tbList"><tbody>
	  <tr><td class="tL"><a href="javascript:openCorpInfo('00999999');">새회사</a></td></tr>
	  <tr><td class="tL"><a href="javascript:openCorpInfo('00888888');">새회사홀딩스</a></td></tr>
	</tbody></table>`

	mux := http.NewServeMux()
	mux.HandleFunc("/dsab007/detailSearch.ax", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("textCrpNm") != "새회사" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(viewerHTML))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv)
	res, err := c.Search(context.Background(), "새회사")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Match == nil || res.Match.CorpCode != "00999999" {
		t.Fatalf("match = %+v, want 새회사 (00999999)", res.Match)
	}
}

func TestExtractCorpCode(t *testing.T) {
	cases := []struct {
		href string
		want string
	}{
		{"javascript:openCorpInfo('00126380');", "00126380"},
		{"javascript:void(0)", ""},
		{"", ""},
		{"openCorpInfo('", ""},
	}
	for _, tc := range cases {
		if got := extractCorpCode(tc.href); got != tc.want {
			t.Errorf("extractCorpCode(%q) = %q, want %q", tc.href, got, tc.want)
		}
	}
}
