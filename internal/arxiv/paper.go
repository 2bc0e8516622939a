package arxiv

// Paper describes one publication candidate fetched from arXiv. The two
// Relevance fields stay at their zero values until the evaluator scores the
// paper above the configured threshold.
type Paper struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	Abstract        string   `json:"abstract"`
	Authors         string   `json:"authors"`
	Published       string   `json:"published"`
	Categories      []string `json:"categories"`
	PDFURL          string   `json:"pdf_url"`
	RelevanceScore  float64  `json:"relevance_score,omitempty"`
	RelevanceReason string   `json:"relevance_reason,omitempty"`
}

type Papers struct {
	Items []*Paper
}

func (p *Papers) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

// Titles returns the titles of all papers, mostly for logging.
func (p *Papers) Titles() []string {
	titles := make([]string, 0, p.Len())
	for _, paper := range p.Items {
		titles = append(titles, paper.Title)
	}
	return titles
}

// Deduplicate removes papers sharing the same URL, keeping the first
// occurrence. Papers cross-listed in several categories arrive once per
// category, so the same URL may show up multiple times.
func (p *Papers) Deduplicate() {
	seen := make(map[string]struct{}, len(p.Items))
	unique := make([]*Paper, 0, len(p.Items))
	for _, paper := range p.Items {
		if _, ok := seen[paper.URL]; ok {
			continue
		}
		seen[paper.URL] = struct{}{}
		unique = append(unique, paper)
	}
	p.Items = unique
}
