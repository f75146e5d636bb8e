package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/description_extraction.md
var descriptionPromptRaw string

// DescriptionTemplate is the parsed prompt for description extraction.
// It expects .Text and .Sentinel.
var DescriptionTemplate = template.Must(template.New("description_extraction").Parse(descriptionPromptRaw))
