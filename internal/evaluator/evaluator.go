package evaluator

import (
	"context"
	"sort"
	"strings"
	"sync"

	_ "embed"

	"github.com/spigell/arxiv-digest/internal/arxiv"
	"github.com/spigell/arxiv-digest/internal/llm"
	"github.com/spigell/arxiv-digest/internal/logger"

	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const (
	defaultWorkers = 10
	titleLogLimit  = 50
)

// Evaluator scores candidate papers against the user's research profile and
// keeps those at or above the threshold, ranked by descending score.
type Evaluator struct {
	generator llm.Generator
	threshold float64
	workers   int
	verbose   bool
	logger    *zap.Logger
}

func New(generator llm.Generator, threshold float64, workers int, verbose bool, log *zap.Logger) *Evaluator {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Evaluator{
		generator: generator,
		threshold: threshold,
		workers:   workers,
		verbose:   verbose,
		logger:    log,
	}
}

// Evaluate scores every paper concurrently and returns the papers whose score
// is at or above the threshold, sorted by descending score. Equal scores keep
// their original fetch order. Per-paper failures degrade to a zero score and
// never abort the batch, so Evaluate has no error to return.
func (e *Evaluator) Evaluate(ctx context.Context, papers *arxiv.Papers, researchContext, interests string) *arxiv.Papers {
	if papers.Len() == 0 {
		return &arxiv.Papers{Items: []*arxiv.Paper{}}
	}

	items := papers.Items

	// Each worker writes into the slot of the paper's original index, so the
	// collected results are ordered deterministically regardless of which
	// call finishes first.
	results := make([]Result, len(items))
	indexes := make(chan int)

	workers := e.workers
	if workers > len(items) {
		workers = len(items)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = e.evaluateOne(ctx, items[i], researchContext, interests)
			}
		}()
	}

	for i := range items {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	retained := make([]*arxiv.Paper, 0, len(items))
	for i, paper := range items {
		result := results[i]

		if e.verbose {
			e.logger.Info("paper evaluated",
				zap.String("title", logger.TruncateForLog(paper.Title, titleLogLimit)),
				zap.Float64("score", result.Score),
			)
		}

		if result.Score >= e.threshold {
			paper.RelevanceScore = result.Score
			paper.RelevanceReason = result.Reason
			retained = append(retained, paper)
		}
	}

	sort.SliceStable(retained, func(i, j int) bool {
		return retained[i].RelevanceScore > retained[j].RelevanceScore
	})

	return &arxiv.Papers{Items: retained}
}

func (e *Evaluator) evaluateOne(ctx context.Context, paper *arxiv.Paper, researchContext, interests string) Result {
	prompt := buildPrompt(researchContext, interests, paper)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		e.logger.Warn("evaluation failed",
			zap.String("title", logger.TruncateForLog(paper.Title, titleLogLimit)),
			zap.Error(err),
		)
		return Result{Score: 0, Reason: ReasonError}
	}

	result := ParseReply(raw)
	if !result.Parsed {
		e.logger.Warn("reply carried no extractable score",
			zap.String("title", logger.TruncateForLog(paper.Title, titleLogLimit)),
			zap.String("reply_preview", logger.TruncateForLog(raw, 200)),
		)
	}

	return result
}

func buildPrompt(researchContext, interests string, paper *arxiv.Paper) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "{{RESEARCH_CONTEXT}}\n\nINTERESTS:\n{{INTERESTS}}\n\nTitle: {{TITLE}}\nAbstract: {{ABSTRACT}}\n\nRespond with SCORE: and REASON: lines."
	}

	prompt := strings.ReplaceAll(template, "{{RESEARCH_CONTEXT}}", researchContext)
	prompt = strings.ReplaceAll(prompt, "{{INTERESTS}}", interests)
	prompt = strings.ReplaceAll(prompt, "{{TITLE}}", paper.Title)
	prompt = strings.ReplaceAll(prompt, "{{ABSTRACT}}", paper.Abstract)

	return prompt
}
