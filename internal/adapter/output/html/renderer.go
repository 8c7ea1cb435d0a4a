// Package html renders the standalone review.html preview: context metrics,
// overview, validation findings, and per-anchor annotations with their focus
// snippets. Note prose is treated as markdown and sanitized before embedding.
package html

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"github.com/akhmerov/prereview/internal/domain"
	"github.com/akhmerov/prereview/internal/usecase/validate"
)

const (
	maxOverviewShown = 8
	maxIssuesShown   = 25
)

// Renderer builds review.html pages from a materialized render model.
type Renderer struct {
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
	page      *template.Template
}

// NewRenderer constructs a renderer with GFM markdown and UGC sanitization.
func NewRenderer() *Renderer {
	return &Renderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(ghtml.WithUnsafe()),
		),
		sanitizer: bluemonday.UGCPolicy(),
		page:      template.Must(template.New("review").Parse(pageTemplate)),
	}
}

// Render produces the complete HTML document.
func (r *Renderer) Render(title string, model validate.RenderModel, report domain.Report) (string, error) {
	var buf bytes.Buffer
	if err := r.page.Execute(&buf, r.buildView(title, model, report)); err != nil {
		return "", fmt.Errorf("failed to render html: %w", err)
	}
	return buf.String(), nil
}

type pageView struct {
	Title        string
	ContextID    string
	GeneratedAt  string
	Stats        domain.Stats
	Mapped       int
	Unmapped     int
	Errors       int
	Warnings     int
	Overview     []template.HTML
	Issues       []domain.Issue
	MoreIssues   int
	Files        []fileView
	LineComments []commentView
}

type fileView struct {
	Path    string
	Status  string
	Summary template.HTML
	Anchors []anchorView
}

type anchorView struct {
	AnchorID      string
	Title         string
	Breadcrumb    string
	Severity      string
	SeverityClass string
	WhatChanged   template.HTML
	WhyChanged    template.HTML
	ReviewerFocus template.HTML
	Risk          template.HTML
	RiskHint      string
	Snippets      []string
}

type commentView struct {
	Path     string
	Line     int
	Severity string
	Text     template.HTML
}

func (r *Renderer) buildView(title string, model validate.RenderModel, report domain.Report) pageView {
	errors, warnings := report.Counts()
	view := pageView{
		Title:       title,
		ContextID:   model.ContextID,
		GeneratedAt: model.GeneratedAt,
		Stats:       model.Stats,
		Mapped:      report.Stats.MappedAnchors,
		Unmapped:    report.Stats.UnmappedAnchors,
		Errors:      errors,
		Warnings:    warnings,
	}

	for _, line := range model.Overview {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(view.Overview) == maxOverviewShown {
			break
		}
		view.Overview = append(view.Overview, r.markdownHTML(line))
	}

	view.Issues = report.Issues
	if len(view.Issues) > maxIssuesShown {
		view.MoreIssues = len(view.Issues) - maxIssuesShown
		view.Issues = view.Issues[:maxIssuesShown]
	}

	for _, file := range model.Files {
		rendered := fileView{
			Path:    file.Path,
			Status:  string(file.Status),
			Summary: r.markdownHTML(file.Summary),
		}
		for _, anchor := range file.Anchors {
			rendered.Anchors = append(rendered.Anchors, anchorView{
				AnchorID:      anchor.AnchorID,
				Title:         anchor.Title,
				Breadcrumb:    anchor.Breadcrumb,
				Severity:      string(anchor.Severity),
				SeverityClass: "severity-" + string(anchor.Severity),
				WhatChanged:   r.markdownHTML(anchor.WhatChanged),
				WhyChanged:    r.markdownHTML(anchor.WhyChanged),
				ReviewerFocus: r.markdownHTML(anchor.ReviewerFocus),
				Risk:          r.markdownHTML(anchor.Risk),
				RiskHint:      anchor.RiskHint,
				Snippets:      anchor.FocusSnippets,
			})
		}
		view.Files = append(view.Files, rendered)
	}

	for _, comment := range model.LineComments {
		view.LineComments = append(view.LineComments, commentView{
			Path:     comment.Path,
			Line:     comment.Line,
			Severity: string(comment.Severity),
			Text:     r.markdownHTML(comment.Text),
		})
	}

	return view
}

// markdownHTML converts note markdown to sanitized HTML. Conversion failures
// fall back to sanitizing the raw text.
func (r *Renderer) markdownHTML(src string) template.HTML {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(r.sanitizer.Sanitize(src))
	}
	return template.HTML(r.sanitizer.Sanitize(buf.String()))
}
