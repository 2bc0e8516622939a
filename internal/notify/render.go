// Package notify formats the ranked digest and delivers it via SMTP email or
// a Feishu webhook. The two channels are independent: one failing never
// blocks the other.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/spigell/arxiv-digest/internal/arxiv"
)

const (
	noPapersMessage = "No papers matched your interests today."

	bodyWrapWidth = 67
)

// RenderDigest returns the plain-text digest as it would appear in the email
// body, for previews and dry runs.
func RenderDigest(papers *arxiv.Papers) string {
	return digestBody(papers, time.Now())
}

func digestSubject(papers *arxiv.Papers, now time.Time) string {
	plural := "s"
	if papers.Len() == 1 {
		plural = ""
	}
	return fmt.Sprintf("ArXiv Digest: %d relevant paper%s - %s", papers.Len(), plural, now.Format("2006-01-02"))
}

// digestBody renders the full plain-text email body. An empty paper list
// still produces a body, with an explicit no-papers line.
func digestBody(papers *arxiv.Papers, now time.Time) string {
	if papers.Len() == 0 {
		return fmt.Sprintf("ArXiv Daily Digest - %s\n\n%s\n", now.Format("2006-01-02"), noPapersMessage)
	}

	lines := []string{
		"Here are today's relevant papers from arXiv:",
		"",
		strings.Repeat("=", 70),
		"",
	}

	for i, paper := range papers.Items {
		reason := paper.RelevanceReason
		if reason == "" {
			reason = "No reason provided"
		}

		lines = append(lines,
			fmt.Sprintf("%d. %s", i+1, paper.Title),
			fmt.Sprintf("   Authors: %s", paper.Authors),
			fmt.Sprintf("   Published: %s", paper.Published),
			fmt.Sprintf("   Relevance: %.1f/10 - %s", paper.RelevanceScore, reason),
			fmt.Sprintf("   URL: %s", paper.URL),
			fmt.Sprintf("   PDF: %s", paper.PDFURL),
			"",
			"   Abstract:",
			wrapText(paper.Abstract, bodyWrapWidth),
			"",
			strings.Repeat("-", 70),
			"",
		)
	}

	lines = append(lines,
		"",
		"---",
		"This digest was generated automatically.",
		"Powered by ArXiv Daily Digest",
	)

	return strings.Join(lines, "\n")
}

// feishuMessage renders the compact chat message, capped at maxPapers
// entries. An empty list yields an explicit no-papers message.
func feishuMessage(papers *arxiv.Papers, maxPapers int, now time.Time) string {
	date := now.Format("2006-01-02")

	if papers.Len() == 0 {
		return fmt.Sprintf("ArXiv Daily Digest - %s\n\n%s", date, noPapersMessage)
	}

	shown := papers.Len()
	if shown > maxPapers {
		shown = maxPapers
	}

	lines := []string{
		fmt.Sprintf("ArXiv Daily Digest - %s", date),
		"",
		fmt.Sprintf("Top %d relevant paper(s):", shown),
	}

	for i, paper := range papers.Items[:shown] {
		link := paper.PDFURL
		if link == "" {
			link = paper.URL
		}

		lines = append(lines,
			"",
			fmt.Sprintf("%d. %s (%.1f/10)", i+1, paper.Title, paper.RelevanceScore),
			link,
		)

		if paper.RelevanceReason != "" {
			lines = append(lines, fmt.Sprintf("Reason: %s", paper.RelevanceReason))
		}
	}

	lines = append(lines, "", "This message was generated automatically.")

	return strings.Join(lines, "\n")
}

// wrapText reflows text to the given width, indenting every line with three
// spaces to match the body layout.
func wrapText(text string, width int) string {
	words := strings.Fields(text)

	var lines []string
	var current []string
	length := 0

	for _, word := range words {
		if length+len(word)+1 <= width {
			current = append(current, word)
			length += len(word) + 1
		} else {
			if len(current) > 0 {
				lines = append(lines, "   "+strings.Join(current, " "))
			}
			current = []string{word}
			length = len(word)
		}
	}

	if len(current) > 0 {
		lines = append(lines, "   "+strings.Join(current, " "))
	}

	return strings.Join(lines, "\n")
}
