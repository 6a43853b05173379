package entities

// ImportSettings is the user-editable configuration consumed by an import run.
type ImportSettings struct {
	FilenameTemplate     string `json:"filename_template"`
	FrontmatterTemplate  string `json:"frontmatter_template"`
	PageMetadataTemplate string `json:"page_metadata_template"`
	HighlightTemplate    string `json:"highlight_template"`
	SyncHeaderTemplate   string `json:"sync_header_template"`
	IncludeStoreBought   bool   `json:"include_store_bought"`
	AppendMode           bool   `json:"append_mode"`
	OutputFolder         string `json:"output_folder"`
}

const (
	DefaultFilenameTemplate = "{{title}}"

	DefaultFrontmatterTemplate = `---
title: "{{title}}"
author: "{{author}}"
source: {{source}}
{% if progress %}progress: {{progress}}
{% endif %}{% if pages %}pages: {{pages}}
{% endif %}{% if date_last_read %}last_read: {{date_last_read|date('YYYY-MM-DD')}}
{% endif %}highlights: {{highlights_count}}
imported: {{date|date('YYYY-MM-DD')}}
tags: [highlights, books]
---`

	DefaultPageMetadataTemplate = `# {{title}}
{% if author %}
*by {{author}}*
{% endif %}
{% if progress %}Read: {{progress}}%{% endif %}{% if date_last_read %} · last opened {{date_last_read|date('DD MMM YYYY')}}{% endif %}

## Highlights`

	DefaultHighlightTemplate = `> {{text}}
{% if annotation %}
**Note:** {{annotation}}
{% endif %}
{% if location %}*Location: {{location}}%* {% endif %}{% if date_created %}*{{date_created|date('YYYY-MM-DD HH:mm')}}*{% endif %}
`

	DefaultSyncHeaderTemplate = `## New highlights · {{date|date('YYYY-MM-DD HH:mm')}}`

	DefaultOutputFolder = "Kobo Highlights"
)

// DefaultImportSettings returns the built-in settings used when nothing is configured.
func DefaultImportSettings() ImportSettings {
	return ImportSettings{
		FilenameTemplate:     DefaultFilenameTemplate,
		FrontmatterTemplate:  DefaultFrontmatterTemplate,
		PageMetadataTemplate: DefaultPageMetadataTemplate,
		HighlightTemplate:    DefaultHighlightTemplate,
		SyncHeaderTemplate:   DefaultSyncHeaderTemplate,
		IncludeStoreBought:   false,
		AppendMode:           true,
		OutputFolder:         DefaultOutputFolder,
	}
}
