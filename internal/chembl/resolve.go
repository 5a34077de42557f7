package chembl

import (
	"strings"

	"github.com/klaud-0x/klaud-api/internal/pipeline"
)

const (
	organismOfInterest = "Homo sapiens"
	preferredType      = "SINGLE PROTEIN"
)

// targetRecord is one candidate from the target search endpoint.
type targetRecord struct {
	TargetChemblID string `json:"target_chembl_id"`
	PrefName       string `json:"pref_name"`
	TargetType     string `json:"target_type"`
	Organism       string `json:"organism"`
	Components     []struct {
		Synonyms []struct {
			ComponentSynonym string `json:"component_synonym"`
		} `json:"target_component_synonyms"`
	} `json:"target_components"`
}

// hasExactSynonym reports whether any component synonym equals query,
// case-insensitively.
func (t targetRecord) hasExactSynonym(query string) bool {
	for _, comp := range t.Components {
		for _, syn := range comp.Synonyms {
			if strings.EqualFold(syn.ComponentSynonym, query) {
				return true
			}
		}
	}
	return false
}

// resolveTarget picks exactly one canonical target for an ambiguous gene
// symbol. Tie-break priority: a human single-protein target whose synonym
// matches the query exactly, then any human single protein, then anything
// human, then whatever the upstream ranked first.
func resolveTarget(candidates []targetRecord, query string) targetRecord {
	return pipeline.BestBy(candidates,
		func(t targetRecord) bool {
			return t.Organism == organismOfInterest &&
				t.TargetType == preferredType &&
				t.hasExactSynonym(query)
		},
		func(t targetRecord) bool {
			return t.Organism == organismOfInterest && t.TargetType == preferredType
		},
		func(t targetRecord) bool {
			return t.Organism == organismOfInterest
		},
	)
}
