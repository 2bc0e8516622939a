package arxiv

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

const feedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2401.00001v1</id>
    <title>Sparse Attention for Long Documents</title>
    <summary>We study efficient attention over long documents.</summary>
    <published>%s</published>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <category term="cs.LG"/>
    <category term="cs.CL"/>
    <link title="pdf" href="http://arxiv.org/pdf/2401.00001v1"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2401.00002v1</id>
    <title>A Survey of Underwater Basket Weaving</title>
    <summary>Nothing to do with machine learning.</summary>
    <published>%s</published>
    <author><name>Grace Hopper</name></author>
    <category term="cs.LG"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2312.99999v2</id>
    <title>An Old Paper About Attention</title>
    <summary>Attention is discussed at length.</summary>
    <published>%s</published>
    <author><name>John McCarthy</name></author>
    <category term="cs.LG"/>
  </entry>
</feed>`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(context.Background(), zap.NewNop())
	client.APIURL = server.URL

	return client, server
}

func sampleFeed() string {
	recent := time.Now().Add(-2 * time.Hour).UTC().Format(time.RFC3339)
	old := time.Now().AddDate(0, 0, -30).UTC().Format(time.RFC3339)
	return fmt.Sprintf(feedTemplate, recent, recent, old)
}

func TestFetchPapersParsesFeed(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search_query"); got != "cat:cs.LG" {
			t.Errorf("unexpected search_query: %q", got)
		}
		fmt.Fprint(w, sampleFeed())
	})

	papers, err := client.FetchPapers(&SearchParams{Categories: []string{"cs.LG"}, MaxDaysBack: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The 30 day old entry is outside the recency window.
	if papers.Len() != 2 {
		t.Fatalf("expected 2 papers, got %d: %v", papers.Len(), papers.Titles())
	}

	paper := papers.Items[0]
	if paper.URL != "http://arxiv.org/abs/2401.00001v1" {
		t.Fatalf("unexpected url: %q", paper.URL)
	}
	if paper.Title != "Sparse Attention for Long Documents" {
		t.Fatalf("unexpected title: %q", paper.Title)
	}
	if paper.Authors != "Ada Lovelace, Alan Turing" {
		t.Fatalf("unexpected authors: %q", paper.Authors)
	}
	if paper.PDFURL != "http://arxiv.org/pdf/2401.00001v1" {
		t.Fatalf("unexpected pdf url: %q", paper.PDFURL)
	}
	if len(paper.Categories) != 2 || paper.Categories[0] != "cs.LG" {
		t.Fatalf("unexpected categories: %v", paper.Categories)
	}
	if paper.Published != time.Now().UTC().Add(-2*time.Hour).Format("2006-01-02") {
		t.Fatalf("unexpected published date: %q", paper.Published)
	}
}

func TestFetchPapersKeywordFilter(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, sampleFeed())
	})

	papers, err := client.FetchPapers(&SearchParams{
		Categories: []string{"cs.LG"},
		Keywords:   []string{"ATTENTION"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if papers.Len() != 1 {
		t.Fatalf("expected 1 paper after keyword filter, got %d", papers.Len())
	}
	if papers.Items[0].Title != "Sparse Attention for Long Documents" {
		t.Fatalf("unexpected paper kept: %q", papers.Items[0].Title)
	}
}

func TestFetchPapersDeduplicatesAcrossCategories(t *testing.T) {
	// The same feed is served for both categories, so every paper arrives twice.
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, sampleFeed())
	})

	papers, err := client.FetchPapers(&SearchParams{Categories: []string{"cs.LG", "cs.CL"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if papers.Len() != 2 {
		t.Fatalf("expected 2 unique papers, got %d", papers.Len())
	}
}

func TestFetchPapersBadStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	})

	_, err := client.FetchPapers(&SearchParams{Categories: []string{"cs.LG"}})
	if err == nil {
		t.Fatalf("expected error on bad status")
	}
}

func TestMatchesKeywords(t *testing.T) {
	paper := &Paper{Title: "Graph Neural Networks", Abstract: "We train GNNs on molecules."}

	tests := []struct {
		name     string
		keywords []string
		want     bool
	}{
		{"empty list passes through", nil, true},
		{"case insensitive title match", []string{"graph neural"}, true},
		{"abstract match", []string{"MOLECULES"}, true},
		{"no match", []string{"reinforcement learning"}, false},
		{"any keyword suffices", []string{"transformers", "molecules"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchesKeywords(paper, tt.keywords); got != tt.want {
				t.Fatalf("matchesKeywords() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeduplicateKeepsFirstOccurrence(t *testing.T) {
	papers := &Papers{Items: []*Paper{
		{URL: "u1", Title: "first"},
		{URL: "u2", Title: "second"},
		{URL: "u1", Title: "duplicate of first"},
	}}

	papers.Deduplicate()

	if papers.Len() != 2 {
		t.Fatalf("expected 2 papers, got %d", papers.Len())
	}
	if papers.Items[0].Title != "first" || papers.Items[1].Title != "second" {
		t.Fatalf("unexpected order after dedup: %v", papers.Titles())
	}
}
