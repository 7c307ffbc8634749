package prompt

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"repodigest/internal/types"
	"repodigest/internal/util/jsonutil"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// templates are parsed once at package init and reused on every call.
var templates = template.Must(template.New("prompts").Funcs(template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := jsonutil.MarshalNoEscapeIndent(v)
		return string(b), err
	},
}).ParseFS(templateFS, "templates/*.tmpl"))

type FileSummaryData struct {
	Path        string
	Snippet     string
	UserContext string
	Language    string
}

type BatchSemanticData struct {
	BatchID     int
	FilesCount  int
	Files       []types.CompactFile
	UserContext string
	Language    string
}

type ProjectSynthesisData struct {
	RepoAnalysisID string
	Batches        []types.BatchSemanticSummary
	MinFeatures    int
	MaxFeatures    int
	Language       string
}

type CommitStyleData struct {
	Sample   types.CommitSample
	Language string
}

func FileSummary(d FileSummaryData) (string, error) {
	return render("file_summary.tmpl", d)
}

func BatchSemantic(d BatchSemanticData) (string, error) {
	return render("batch_semantic.tmpl", d)
}

func ProjectSynthesis(d ProjectSynthesisData) (string, error) {
	return render("project_synthesis.tmpl", d)
}

func CommitStyle(d CommitStyleData) (string, error) {
	return render("commit_style.tmpl", d)
}

func render(name string, data any) (string, error) {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return sb.String(), nil
}
