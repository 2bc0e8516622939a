package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL    = "https://export.arxiv.org/api/query"
	userAgent = "spigell/arxiv-digest (spigelly@gmail.com)"

	defaultMaxResults  = 100
	defaultMaxDaysBack = 1
)

type Client struct {
	// ctx used only for http requests right now
	ctx        context.Context
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

func New(ctx context.Context, logger *zap.Logger) *Client {
	return &Client{
		ctx:    ctx,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

// SearchParams describe what to fetch: one query per category, capped at
// MaxResults entries, kept only when published within the last MaxDaysBack
// days and matching at least one keyword (an empty keyword list disables the
// keyword filter).
type SearchParams struct {
	Categories  []string `mapstructure:"categories"`
	Keywords    []string `mapstructure:"keywords"`
	MaxDaysBack int      `mapstructure:"max-days-back"`
	MaxResults  int      `mapstructure:"max-results"`
}

// FetchPapers queries arXiv per category and returns the deduplicated
// candidate list. No ordering is guaranteed; the evaluator re-sorts by score.
func (c *Client) FetchPapers(params *SearchParams) (*Papers, error) {
	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	maxDaysBack := params.MaxDaysBack
	if maxDaysBack <= 0 {
		maxDaysBack = defaultMaxDaysBack
	}
	cutoff := time.Now().AddDate(0, 0, -maxDaysBack)

	papers := &Papers{}
	for _, category := range params.Categories {
		feed, err := c.fetchCategory(category, maxResults)
		if err != nil {
			return nil, fmt.Errorf("fetching category %s: %w", category, err)
		}

		kept := 0
		for _, entry := range feed.Entries {
			paper, publishedAt := paperFromEntry(entry)
			if publishedAt.Before(cutoff) {
				continue
			}
			if !matchesKeywords(paper, params.Keywords) {
				continue
			}
			papers.Items = append(papers.Items, paper)
			kept++
		}

		c.logger.Debug("fetched category",
			zap.String("category", category),
			zap.Int("entries", len(feed.Entries)),
			zap.Int("kept", kept),
		)
	}

	papers.Deduplicate()

	return papers, nil
}

func (c *Client) fetchCategory(category string, maxResults int) (*feed, error) {
	q := url.Values{}
	q.Set("search_query", "cat:"+category)
	q.Set("start", "0")
	q.Set("max_results", strconv.Itoa(maxResults))
	q.Set("sortBy", "submittedDate")
	q.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(c.ctx, http.MethodGet, c.APIURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.URL.RawQuery = q.Encode()

	c.logger.Debug("make request", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var f feed
	if err := xml.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing atom feed: %w", err)
	}

	return &f, nil
}

func paperFromEntry(entry feedEntry) (*Paper, time.Time) {
	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		authors = append(authors, strings.TrimSpace(a.Name))
	}

	categories := make([]string, 0, len(entry.Categories))
	for _, cat := range entry.Categories {
		categories = append(categories, cat.Term)
	}

	publishedAt, _ := time.Parse(time.RFC3339, entry.Published)

	pdfURL := ""
	for _, link := range entry.Links {
		if link.Title == "pdf" {
			pdfURL = link.Href
			break
		}
	}
	if pdfURL == "" {
		pdfURL = strings.Replace(entry.ID, "/abs/", "/pdf/", 1)
	}

	return &Paper{
		URL:        strings.TrimSpace(entry.ID),
		Title:      strings.TrimSpace(entry.Title),
		Abstract:   strings.TrimSpace(entry.Summary),
		Authors:    strings.Join(authors, ", "),
		Published:  publishedAt.Format("2006-01-02"),
		Categories: categories,
		PDFURL:     pdfURL,
	}, publishedAt
}

// matchesKeywords reports whether the paper contains any of the keywords in
// its title or abstract, case-insensitively. An empty list matches everything.
func matchesKeywords(paper *Paper, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}

	text := strings.ToLower(paper.Title + " " + paper.Abstract)
	for _, keyword := range keywords {
		if strings.Contains(text, strings.ToLower(keyword)) {
			return true
		}
	}

	return false
}

// arXiv Atom feed XML structures.
type feed struct {
	Entries []feedEntry `xml:"entry"`
}

type feedEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Authors    []feedAuthor    `xml:"author"`
	Categories []feedCategory  `xml:"category"`
	Links      []feedEntryLink `xml:"link"`
}

type feedAuthor struct {
	Name string `xml:"name"`
}

type feedCategory struct {
	Term string `xml:"term,attr"`
}

type feedEntryLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
}
