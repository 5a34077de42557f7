package chembl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klaud-0x/klaud-api/internal/apierr"
)

func jsonUnmarshal(s string, v any) error {
	return json.Unmarshal([]byte(s), v)
}

func target(id, name, organism, ttype string, synonyms ...string) string {
	syns := make([]string, 0, len(synonyms))
	for _, s := range synonyms {
		syns = append(syns, fmt.Sprintf(`{"component_synonym":%q}`, s))
	}
	return fmt.Sprintf(`{"target_chembl_id":%q,"pref_name":%q,"organism":%q,"target_type":%q,
		"target_components":[{"target_component_synonyms":[%s]}]}`,
		id, name, organism, ttype, strings.Join(syns, ","))
}

const mechanismsFixture = `{"mechanisms":[
  {"molecule_chembl_id":"CHEMBL939","molecule_name":"GEFITINIB","mechanism_of_action":"EGFR inhibitor","action_type":"INHIBITOR","max_phase":4},
  {"molecule_chembl_id":"CHEMBL939","molecule_name":"GEFITINIB","mechanism_of_action":"EGFR inhibitor (dup)","action_type":"INHIBITOR","max_phase":4},
  {"molecule_chembl_id":"CHEMBL554","molecule_name":null,"mechanism_of_action":"EGFR inhibitor","action_type":"INHIBITOR","max_phase":4},
  {"molecule_chembl_id":"CHEMBL1173655","molecule_name":null,"mechanism_of_action":"EGFR inhibitor","action_type":"INHIBITOR","max_phase":3}
]}`

func newFakeChembl(t *testing.T, targetsJSON string, namesFail bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/target/search.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"targets":[%s]}`, targetsJSON)
	})
	mux.HandleFunc("/mechanism.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(mechanismsFixture))
	})
	mux.HandleFunc("/molecule/set/", func(w http.ResponseWriter, r *http.Request) {
		if namesFail {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"molecules":[
			{"molecule_chembl_id":"CHEMBL554","pref_name":"ERLOTINIB"},
			{"molecule_chembl_id":"CHEMBL1173655","pref_name":null}
		]}`))
	})
	mux.HandleFunc("/molecule/search.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"molecules":[
			{"molecule_chembl_id":"CHEMBL25","pref_name":"ASPIRIN","molecule_type":"Small molecule",
			 "max_phase":"4.0","first_approval":1950,"oral":true,"parenteral":false,"topical":false,
			 "natural_product":"0",
			 "molecule_properties":{"full_molformula":"C9H8O4","full_mw":"180.16","alogp":"1.31",
			   "hba":"3","hbd":"1","psa":"63.60","num_ro5_violations":"0"}},
			{"molecule_chembl_id":"CHEMBL112","pref_name":null,"molecule_type":"Small molecule",
			 "max_phase":null,"oral":false,"parenteral":false,"topical":false,"natural_product":"1"}
		]}`))
	})
	return httptest.NewServer(mux)
}

func testClient(srv *httptest.Server) *Client {
	c := NewClient(15, 3)
	c.BaseURL = srv.URL
	c.HTTP = srv.Client()
	return c
}

func TestResolveTargetPrefersExactSynonym(t *testing.T) {
	candidates := []targetRecord{}
	for _, raw := range []string{
		target("CHEMBL100", "Some rat protein", "Rattus norvegicus", "SINGLE PROTEIN", "EGFR"),
		target("CHEMBL200", "EGFR-ish human complex", "Homo sapiens", "PROTEIN COMPLEX", "EGFR"),
		target("CHEMBL300", "Human fuzzy match", "Homo sapiens", "SINGLE PROTEIN", "ERBB2"),
		target("CHEMBL203", "Epidermal growth factor receptor", "Homo sapiens", "SINGLE PROTEIN", "ERBB1", "EGFR"),
	} {
		var tr targetRecord
		require.NoError(t, jsonUnmarshal(raw, &tr))
		candidates = append(candidates, tr)
	}

	// The exact human single-protein synonym wins regardless of order.
	best := resolveTarget(candidates, "egfr")
	assert.Equal(t, "CHEMBL203", best.TargetChemblID)

	// Without it, any human single protein beats the complex.
	best = resolveTarget(candidates[:3], "kras")
	assert.Equal(t, "CHEMBL300", best.TargetChemblID)

	// Organism alone beats upstream order.
	best = resolveTarget([]targetRecord{candidates[0], candidates[1]}, "kras")
	assert.Equal(t, "CHEMBL200", best.TargetChemblID)

	// Nothing matches: first candidate.
	best = resolveTarget(candidates[:1], "kras")
	assert.Equal(t, "CHEMBL100", best.TargetChemblID)
}

func TestDrugsForTargetDedupAndBatchNames(t *testing.T) {
	srv := newFakeChembl(t, strings.Join([]string{
		target("CHEMBL203", "Epidermal growth factor receptor", "Homo sapiens", "SINGLE PROTEIN", "EGFR"),
	}, ","), false)
	defer srv.Close()

	res, err := testClient(srv).DrugsForTarget(context.Background(), "EGFR", 10)
	require.NoError(t, err)
	assert.Equal(t, "CHEMBL203", res.TargetChemblID)
	assert.Equal(t, "Homo sapiens", res.Organism)

	// Duplicate CHEMBL939 collapsed, first occurrence kept.
	require.Len(t, res.Drugs, 3)
	assert.Equal(t, "CHEMBL939", res.Drugs[0].ChemblID)
	assert.Equal(t, "EGFR inhibitor", res.Drugs[0].Mechanism)

	// Name from the mechanism row when present, from the batch lookup
	// otherwise, null when neither knows.
	require.NotNil(t, res.Drugs[0].Name)
	assert.Equal(t, "GEFITINIB", *res.Drugs[0].Name)
	require.NotNil(t, res.Drugs[1].Name)
	assert.Equal(t, "ERLOTINIB", *res.Drugs[1].Name)
	assert.Nil(t, res.Drugs[2].Name)

	assert.Equal(t, "https://www.ebi.ac.uk/chembl/compound_report_card/CHEMBL939/", res.Drugs[0].URL)
}

func TestDrugsForTargetLimitStopsDedup(t *testing.T) {
	srv := newFakeChembl(t, target("CHEMBL203", "EGFR", "Homo sapiens", "SINGLE PROTEIN", "EGFR"), false)
	defer srv.Close()

	res, err := testClient(srv).DrugsForTarget(context.Background(), "EGFR", 2)
	require.NoError(t, err)
	require.Len(t, res.Drugs, 2)
	assert.Equal(t, "CHEMBL939", res.Drugs[0].ChemblID)
	assert.Equal(t, "CHEMBL554", res.Drugs[1].ChemblID)
}

func TestDrugsForTargetBatchNameFailureIsSwallowed(t *testing.T) {
	srv := newFakeChembl(t, target("CHEMBL203", "EGFR", "Homo sapiens", "SINGLE PROTEIN", "EGFR"), true)
	defer srv.Close()

	res, err := testClient(srv).DrugsForTarget(context.Background(), "EGFR", 10)
	require.NoError(t, err)
	require.Len(t, res.Drugs, 3)
	// Mechanism-supplied names survive; batch-only names degrade to null.
	assert.NotNil(t, res.Drugs[0].Name)
	assert.Nil(t, res.Drugs[1].Name)
	assert.Nil(t, res.Drugs[2].Name)
}

func TestDrugsForTargetUnknownGene(t *testing.T) {
	srv := newFakeChembl(t, "", false)
	defer srv.Close()

	_, err := testClient(srv).DrugsForTarget(context.Background(), "NOTAGENE", 5)
	require.Error(t, err)
	assert.Equal(t, apierr.NotFound, apierr.KindOf(err))
	var ae *apierr.Error
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Suggestion, "gene symbol")
}

func TestDrugsForTargetOverFetchesMechanisms(t *testing.T) {
	var mechLimit string
	mux := http.NewServeMux()
	mux.HandleFunc("/target/search.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"targets":[%s]}`, target("CHEMBL203", "EGFR", "Homo sapiens", "SINGLE PROTEIN", "EGFR"))
	})
	mux.HandleFunc("/mechanism.json", func(w http.ResponseWriter, r *http.Request) {
		mechLimit = r.URL.Query().Get("limit")
		w.Write([]byte(`{"mechanisms":[]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res, err := testClient(srv).DrugsForTarget(context.Background(), "EGFR", 5)
	require.NoError(t, err)
	assert.Equal(t, "15", mechLimit, "requests 3x the caller limit")
	assert.Empty(t, res.Drugs, "no mechanisms is an empty result, not an error")
}

func TestSearchMolecules(t *testing.T) {
	srv := newFakeChembl(t, "", false)
	defer srv.Close()

	mols, err := testClient(srv).SearchMolecules(context.Background(), "aspirin", 5)
	require.NoError(t, err)
	require.Len(t, mols, 2)

	m := mols[0]
	assert.Equal(t, "CHEMBL25", m.ChemblID)
	require.NotNil(t, m.Name)
	assert.Equal(t, "ASPIRIN", *m.Name)
	require.NotNil(t, m.MaxPhase)
	assert.Equal(t, 4.0, *m.MaxPhase)
	assert.Equal(t, "Approved", m.PhaseLabel)
	require.NotNil(t, m.MolecularWeight)
	assert.Equal(t, 180.16, *m.MolecularWeight)
	require.NotNil(t, m.HBA)
	assert.Equal(t, 3, *m.HBA)
	assert.False(t, m.NaturalProduct)
	assert.Equal(t, "https://www.ebi.ac.uk/chembl/compound_report_card/CHEMBL25/", m.URL)

	// Nulls stay null.
	assert.Nil(t, mols[1].Name)
	assert.Nil(t, mols[1].MaxPhase)
	assert.Equal(t, "Unknown", mols[1].PhaseLabel)
	assert.Nil(t, mols[1].MolecularWeight)
	assert.True(t, mols[1].NaturalProduct)
}

func TestSearchMoleculesUpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv).SearchMolecules(context.Background(), "aspirin", 5)
	require.Error(t, err)
	assert.Equal(t, apierr.UpstreamUnavailable, apierr.KindOf(err))
}
