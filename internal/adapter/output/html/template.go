package html

const pageTemplate = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
:root {
  --bg: #f4f7fb;
  --panel: #ffffff;
  --ink: #13202d;
  --subtle: #4e6172;
  --border: #d7e0ea;
  --add-bg: #e9f7ef;
  --add-ink: #185f39;
  --comment-bg: #f8f4df;
  --comment-ink: #5b4a13;
}
* { box-sizing: border-box; }
body {
  margin: 0;
  font-family: "IBM Plex Sans", "Segoe UI", sans-serif;
  color: var(--ink);
  background: radial-gradient(circle at 15% 15%, #ffffff, var(--bg) 45%, #e9eef4);
}
main { max-width: 1100px; margin: 0 auto; padding: 1.25rem; }
header {
  background: linear-gradient(125deg, #fefefe, #e7eef7);
  border: 1px solid var(--border);
  border-radius: 14px;
  padding: 1rem;
  margin-bottom: 1rem;
}
.context-line { font-size: 0.8rem; color: var(--subtle); margin-bottom: 0.6rem; word-break: break-all; }
.metrics { display: flex; gap: 0.75rem; flex-wrap: wrap; }
.metric {
  background: var(--panel);
  border: 1px solid var(--border);
  border-radius: 8px;
  padding: 0.5rem 0.75rem;
  min-width: 120px;
}
.overview, .validation {
  margin-top: 0.85rem;
  border: 1px solid var(--border);
  border-radius: 10px;
  background: #fff;
  padding: 0.65rem 0.85rem;
}
.overview h2 { margin: 0; font-size: 0.95rem; }
.overview ul, .validation ul { margin: 0.35rem 0 0; padding-left: 1.15rem; }
.overview li p { margin: 0; }
.files { display: grid; gap: 1rem; }
.file {
  background: var(--panel);
  border: 1px solid var(--border);
  border-radius: 12px;
  overflow: hidden;
}
.file-header { padding: 0.9rem; border-bottom: 1px solid var(--border); background: #fbfdff; }
.file-path { font-family: "IBM Plex Mono", "Consolas", monospace; font-size: 0.95rem; }
.summary { color: var(--subtle); margin-top: 0.4rem; font-size: 0.9rem; }
.summary p { margin: 0; }
.status {
  float: right;
  font-size: 0.8rem;
  border: 1px solid var(--border);
  border-radius: 999px;
  padding: 0.1rem 0.5rem;
  text-transform: uppercase;
}
.anchor { padding: 0.8rem 0.9rem; border-top: 1px solid var(--border); }
.anchor h3 { margin: 0; font-size: 1rem; display: inline; }
.breadcrumb { font-size: 0.8rem; color: var(--subtle); margin: 0.25rem 0 0.5rem; }
.severity {
  display: inline-block;
  font-size: 0.72rem;
  border-radius: 999px;
  padding: 0.1rem 0.55rem;
  margin-right: 0.5rem;
  text-transform: uppercase;
  border: 1px solid var(--border);
  vertical-align: middle;
}
.severity-info { background: #eef2f7; color: var(--subtle); }
.severity-note { background: #e7f0fb; color: #1d4e89; }
.severity-warning { background: #fdf3df; color: #7a5811; }
.severity-risk { background: #fdeeee; color: #81252e; }
.snippets {
  margin: 0.4rem 0 0.6rem;
  border: 1px solid var(--border);
  border-radius: 8px;
  overflow-x: auto;
  font-family: "IBM Plex Mono", "Consolas", monospace;
  font-size: 0.84rem;
}
.snippet-line {
  white-space: pre;
  padding: 0.15rem 0.6rem;
  background: var(--add-bg);
  color: var(--add-ink);
}
.prose { margin-top: 0.45rem; font-size: 0.92rem; }
.prose .label { font-weight: 600; font-size: 0.8rem; color: var(--subtle); text-transform: uppercase; }
.prose p { margin: 0.15rem 0 0; }
.risk-hint { margin-top: 0.45rem; font-size: 0.85rem; color: #81252e; }
.line-comments {
  margin-top: 1rem;
  border: 1px solid var(--border);
  border-radius: 10px;
  background: #fff;
  padding: 0.65rem 0.85rem;
}
.line-comments h2 { margin: 0 0 0.4rem; font-size: 0.95rem; }
.comment {
  border: 1px solid #e6dcaa;
  background: var(--comment-bg);
  color: var(--comment-ink);
  border-radius: 8px;
  padding: 0.35rem 0.5rem;
  margin-top: 0.35rem;
}
.comment-meta { font-size: 0.75rem; opacity: 0.85; margin-bottom: 0.2rem; }
.comment p { margin: 0; }
@media (max-width: 700px) {
  main { padding: 0.8rem; }
}
</style>
</head>
<body>
<main>
<header>
<h1>{{.Title}}</h1>
<div class="context-line">Context {{.ContextID}}{{if .GeneratedAt}} &middot; generated {{.GeneratedAt}}{{end}}</div>
<div class="metrics">
<div class="metric"><strong>Files</strong><div>{{.Stats.FilesChanged}}</div></div>
<div class="metric"><strong>Additions</strong><div>{{.Stats.Additions}}</div></div>
<div class="metric"><strong>Deletions</strong><div>{{.Stats.Deletions}}</div></div>
<div class="metric"><strong>Mapped anchors</strong><div>{{.Mapped}}</div></div>
<div class="metric"><strong>Unmapped anchors</strong><div>{{.Unmapped}}</div></div>
</div>
{{if .Overview}}
<section class="overview">
<h2>Review Overview</h2>
<ul>
{{range .Overview}}<li>{{.}}</li>
{{end}}</ul>
</section>
{{end}}
{{if .Issues}}
<section class="validation">
<strong>Validation:</strong> {{.Errors}} errors, {{.Warnings}} warnings
<ul>
{{range .Issues}}<li><code>{{.Level}}</code> {{.Code}}: {{.Message}} <em>{{.Location}}</em></li>
{{end}}{{if .MoreIssues}}<li>... {{.MoreIssues}} more issues</li>
{{end}}</ul>
</section>
{{end}}
</header>
<section class="files">
{{range .Files}}
<article class="file">
<div class="file-header">
<span class="status">{{.Status}}</span>
<div class="file-path">{{.Path}}</div>
{{if .Summary}}<div class="summary">{{.Summary}}</div>{{end}}
</div>
{{range .Anchors}}
<section class="anchor">
<div><span class="severity {{.SeverityClass}}">{{.Severity}}</span><h3>{{.Title}}</h3></div>
<div class="breadcrumb">{{.Breadcrumb}}</div>
{{if .Snippets}}
<div class="snippets">
{{range .Snippets}}<div class="snippet-line">{{.}}</div>
{{end}}</div>
{{end}}
<div class="prose"><div class="label">What changed</div>{{.WhatChanged}}</div>
<div class="prose"><div class="label">Why</div>{{.WhyChanged}}</div>
{{if .ReviewerFocus}}<div class="prose"><div class="label">Reviewer focus</div>{{.ReviewerFocus}}</div>{{end}}
{{if .Risk}}<div class="prose"><div class="label">Risk</div>{{.Risk}}</div>{{end}}
{{if .RiskHint}}<div class="risk-hint">Heuristic risk hint: {{.RiskHint}}</div>{{end}}
</section>
{{end}}
</article>
{{end}}
</section>
{{if .LineComments}}
<section class="line-comments">
<h2>Line Comments</h2>
{{range .LineComments}}<div class="comment">
<div class="comment-meta">{{.Severity}} &middot; {{.Path}}:{{.Line}}</div>
{{.Text}}
</div>
{{end}}</section>
{{end}}
</main>
</body>
</html>
`
