package web

import "html/template"

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>GMaps File Cleaner</title></head>
<body>
<h1>GMaps File Cleaner</h1>
<p>Filter your maps exports with AI assistance.</p>
{{if .Notice}}<p><em>{{.Notice}}</em></p>{{end}}
<form action="/upload" method="post" enctype="multipart/form-data">
  {{if .NeedsPassword}}
  <p><label>Password: <input type="password" name="password"></label></p>
  {{end}}
  <p><input type="file" name="file" accept=".csv,.tsv,.xlsx,.xls" required></p>
  <p><button type="submit">Upload</button></p>
</form>
</body>
</html>
`))

var sessionTmpl = template.Must(template.New("session").Parse(`<!DOCTYPE html>
<html>
<head><title>GMaps File Cleaner</title></head>
<body>
<h1>{{.SourceName}}</h1>
<p>{{.LoadedRows}} rows loaded. {{.FilteredRows}} rows after pre-filtering ({{.Removed}} removed).</p>
{{if .Notice}}<p><em>{{.Notice}}</em></p>{{end}}

{{if .HasRatingColumns}}
<h2>1. Pre-filters</h2>
<form action="/sessions/{{.ID}}/prefilter" method="post">
  <p><label>Minimum rating: <input name="min_rating" placeholder="e.g. 4.0"></label></p>
  <p><label>Minimum rating count: <input name="min_rating_count" placeholder="e.g. 50"></label></p>
  <p>
    <button type="submit" name="action" value="preview">Preview</button>
    <button type="submit" name="action" value="apply">Apply</button>
  </p>
</form>
{{end}}

<h2>2. AI category filtering</h2>
<form action="/sessions/{{.ID}}/classify" method="post">
  <p><label>Search criteria: <input name="keyword" placeholder="e.g. medical weight loss clinic" required></label></p>
  <p><button type="submit">Start classification</button></p>
</form>

{{if .Classified}}
<h2>3. Refine your selection</h2>
<p>{{len .Candidates}} relevant categories found for &quot;{{.Keyword}}&quot;. Uncheck those you do not want.</p>
<form action="/sessions/{{.ID}}/refine" method="post">
  {{range .Candidates}}
  <p><label><input type="checkbox" name="category" value="{{.Name}}" {{if .Kept}}checked{{end}}> {{.Name}}</label></p>
  {{end}}
  <p>
    <button type="submit" name="action" value="select_all">Select all</button>
    <button type="submit" name="action" value="deselect_all">Deselect all</button>
    <button type="submit" name="action" value="finalize">Generate file</button>
    <button type="submit" name="action" value="use_all">Use AI selection as-is</button>
  </p>
</form>
{{end}}

{{if .HasFinal}}
<h2>4. Export</h2>
<p>The final file contains {{.FinalRows}} rows.</p>
<form action="/sessions/{{.ID}}/export" method="post">
  <p><label><input type="checkbox" name="batch" value="1"> Split into batches</label></p>
  <p><label>Max rows per file: <input name="rows_per_batch" value="{{.RowsPerBatch}}"></label></p>
  <p><button type="submit">Download</button></p>
</form>
{{end}}
</body>
</html>
`))

type candidateView struct {
	Name string
	Kept bool
}

type indexView struct {
	NeedsPassword bool
	Notice        string
}

type sessionView struct {
	ID               string
	SourceName       string
	LoadedRows       int
	FilteredRows     int
	Removed          int
	HasRatingColumns bool
	Keyword          string
	Classified       bool
	Candidates       []candidateView
	HasFinal         bool
	FinalRows        int
	RowsPerBatch     int
	Notice           string
}
