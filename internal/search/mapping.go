package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for game documents.
//
// Titles and descriptions use English stemming. Platforms, genres and status
// are keywords so filters match exactly.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = en.AnalyzerName
	title.Store = true
	title.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("title", title)

	// Sortable copy of the title.
	titleSort := bleve.NewTextFieldMapping()
	titleSort.Analyzer = keyword.Name
	titleSort.Name = "title_sort"
	titleSort.IncludeInAll = false
	docMapping.AddFieldMappingsAt("title", titleSort)

	description := bleve.NewTextFieldMapping()
	description.Analyzer = en.AnalyzerName
	description.Store = false
	docMapping.AddFieldMappingsAt("description", description)

	for _, field := range []string{"developer", "publisher"} {
		m := bleve.NewTextFieldMapping()
		m.Analyzer = simple.Name
		m.Store = true
		docMapping.AddFieldMappingsAt(field, m)
	}

	for _, field := range []string{"platforms", "genres", "status"} {
		m := bleve.NewTextFieldMapping()
		m.Analyzer = keyword.Name
		m.Store = true
		docMapping.AddFieldMappingsAt(field, m)
	}

	teamChoice := bleve.NewBooleanFieldMapping()
	teamChoice.Store = true
	docMapping.AddFieldMappingsAt("team_choice", teamChoice)

	year := bleve.NewNumericFieldMapping()
	year.Store = true
	docMapping.AddFieldMappingsAt("release_year", year)

	updated := bleve.NewNumericFieldMapping()
	updated.Store = true
	docMapping.AddFieldMappingsAt("updated_at", updated)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
