package merge

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
)

//go:embed prompts/classify_conflict.tmpl
var classifyConflictTmpl string

//go:embed prompts/fuse_content.tmpl
var fuseContentTmpl string

var (
	classifyTemplate = template.Must(template.New("classify_conflict").Parse(classifyConflictTmpl))
	fuseTemplate     = template.Must(template.New("fuse_content").Parse(fuseContentTmpl))
)

// promptData is the payload rendered into both provider prompts.
type promptData struct {
	Path     string
	Type     string
	ContentA string
	ContentB string
}

func buildClassifyPrompt(a, b File) (string, error) {
	return renderPrompt(classifyTemplate, a, b)
}

func buildFusePrompt(a, b File) (string, error) {
	return renderPrompt(fuseTemplate, a, b)
}

func renderPrompt(tmpl *template.Template, a, b File) (string, error) {
	data := promptData{
		Path:     a.Path,
		Type:     a.Type,
		ContentA: a.Content,
		ContentB: b.Content,
	}
	if data.Type == "" {
		data.Type = b.Type
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("merge: render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
