// Package chembl looks up drugs and molecules in the ChEMBL REST API.
//
// Molecule search is a plain single-upstream pipeline. Target lookup is
// the layered one: resolve an ambiguous gene symbol to one canonical
// target, fetch its known mechanisms with over-fetch, deduplicate by
// molecule, and batch-resolve missing molecule names best-effort.
package chembl

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/klaud-0x/klaud-api/internal/apierr"
	"github.com/klaud-0x/klaud-api/internal/pipeline"
)

const DefaultBaseURL = "https://www.ebi.ac.uk/chembl/api/data"

const targetSuggestion = "Try gene symbol (e.g., EGFR, BRCA1, TP53, VEGFR)"

var phaseLabels = []string{"Unknown", "Phase I", "Phase II", "Phase III", "Approved"}

// phase tolerates ChEMBL's max_phase arriving as a number, a numeric
// string, or null.
type phase float64

func (p *phase) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*p = phase(math.NaN())
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*p = phase(math.NaN())
		return nil
	}
	*p = phase(f)
	return nil
}

func (p phase) label() string {
	f := float64(p)
	if math.IsNaN(f) {
		return phaseLabels[0]
	}
	idx := int(math.Round(f))
	if idx < 0 || idx >= len(phaseLabels) {
		return fmt.Sprintf("Phase %g", f)
	}
	return phaseLabels[idx]
}

func (p phase) value() *float64 {
	f := float64(p)
	if math.IsNaN(f) {
		return nil
	}
	return &f
}

type Molecule struct {
	ChemblID         string   `json:"chembl_id"`
	Name             *string  `json:"name"`
	Type             string   `json:"type"`
	MaxPhase         *float64 `json:"max_phase"`
	PhaseLabel       string   `json:"phase_label"`
	FirstApproval    *int     `json:"first_approval"`
	Oral             bool     `json:"oral"`
	Parenteral       bool     `json:"parenteral"`
	Topical          bool     `json:"topical"`
	NaturalProduct   bool     `json:"natural_product"`
	MolecularFormula *string  `json:"molecular_formula"`
	MolecularWeight  *float64 `json:"molecular_weight"`
	ALogP            *float64 `json:"alogp"`
	HBA              *int     `json:"hba"`
	HBD              *int     `json:"hbd"`
	PSA              *float64 `json:"psa"`
	RO5Violations    *int     `json:"num_ro5_violations"`
	URL              string   `json:"url"`
}

type Drug struct {
	Name       *string  `json:"name"`
	ChemblID   string   `json:"chembl_id"`
	Mechanism  string   `json:"mechanism"`
	ActionType string   `json:"action_type"`
	MaxPhase   *float64 `json:"max_phase"`
	URL        string   `json:"url"`
}

// TargetResult names the resolved target alongside its drugs, so callers
// can see what the ambiguous query resolved to.
type TargetResult struct {
	TargetName     string `json:"target_name"`
	TargetType     string `json:"target_type"`
	Organism       string `json:"organism"`
	TargetChemblID string `json:"target_chembl_id"`
	Drugs          []Drug `json:"drugs"`
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	// CandidateLimit bounds the target search used for resolution.
	CandidateLimit int
	// OverFetchFactor over-requests mechanism rows to survive dedup.
	OverFetchFactor int
}

func NewClient(candidateLimit, overFetchFactor int) *Client {
	return &Client{
		BaseURL:         DefaultBaseURL,
		HTTP:            &http.Client{},
		CandidateLimit:  candidateLimit,
		OverFetchFactor: overFetchFactor,
	}
}

type moleculeRecord struct {
	MoleculeChemblID string   `json:"molecule_chembl_id"`
	PrefName         *string  `json:"pref_name"`
	MoleculeType     string   `json:"molecule_type"`
	MaxPhase         phase    `json:"max_phase"`
	FirstApproval    *int     `json:"first_approval"`
	Oral             bool     `json:"oral"`
	Parenteral       bool     `json:"parenteral"`
	Topical          bool     `json:"topical"`
	NaturalProduct   flexBool `json:"natural_product"`
	Properties       *struct {
		FullMolformula   *string `json:"full_molformula"`
		FullMW           *string `json:"full_mw"`
		ALogP            *string `json:"alogp"`
		HBA              *string `json:"hba"`
		HBD              *string `json:"hbd"`
		PSA              *string `json:"psa"`
		NumRO5Violations *string `json:"num_ro5_violations"`
	} `json:"molecule_properties"`
}

// flexBool tolerates booleans encoded as true/false, 0/1, or "0"/"1".
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	*f = s == "true" || s == "1"
	return nil
}

// SearchMolecules searches molecules by name. An empty result list is a
// valid answer, not an error.
func (c *Client) SearchMolecules(ctx context.Context, query string, limit int) ([]Molecule, error) {
	params := url.Values{"q": {query}, "limit": {strconv.Itoa(limit)}}
	var payload struct {
		Molecules []moleculeRecord `json:"molecules"`
	}
	if err := c.getJSON(ctx, c.BaseURL+"/molecule/search.json?"+params.Encode(), &payload); err != nil {
		return nil, err
	}

	molecules := make([]Molecule, 0, len(payload.Molecules))
	for _, m := range payload.Molecules {
		mol := Molecule{
			ChemblID:       m.MoleculeChemblID,
			Name:           m.PrefName,
			Type:           m.MoleculeType,
			MaxPhase:       m.MaxPhase.value(),
			PhaseLabel:     m.MaxPhase.label(),
			FirstApproval:  m.FirstApproval,
			Oral:           m.Oral,
			Parenteral:     m.Parenteral,
			Topical:        m.Topical,
			NaturalProduct: bool(m.NaturalProduct),
			URL:            compoundReportURL(m.MoleculeChemblID),
		}
		if p := m.Properties; p != nil {
			mol.MolecularFormula = p.FullMolformula
			mol.MolecularWeight = parseFloatPtr(p.FullMW)
			mol.ALogP = parseFloatPtr(p.ALogP)
			mol.HBA = parseIntPtr(p.HBA)
			mol.HBD = parseIntPtr(p.HBD)
			mol.PSA = parseFloatPtr(p.PSA)
			mol.RO5Violations = parseIntPtr(p.NumRO5Violations)
		}
		molecules = append(molecules, mol)
	}
	return molecules, nil
}

type mechanismRecord struct {
	MoleculeChemblID  string  `json:"molecule_chembl_id"`
	MoleculeName      *string `json:"molecule_name"`
	MechanismOfAction string  `json:"mechanism_of_action"`
	ActionType        string  `json:"action_type"`
	MaxPhase          phase   `json:"max_phase"`
}

// DrugsForTarget resolves gene to one canonical ChEMBL target and returns
// up to limit unique drugs with a known mechanism against it.
func (c *Client) DrugsForTarget(ctx context.Context, gene string, limit int) (*TargetResult, error) {
	params := url.Values{"q": {gene}, "limit": {strconv.Itoa(c.CandidateLimit)}}
	var search struct {
		Targets []targetRecord `json:"targets"`
	}
	if err := c.getJSON(ctx, c.BaseURL+"/target/search.json?"+params.Encode(), &search); err != nil {
		return nil, err
	}
	if len(search.Targets) == 0 {
		return nil, apierr.NotFoundf(targetSuggestion, "target %q not found in ChEMBL", gene)
	}

	best := resolveTarget(search.Targets, gene)

	mechParams := url.Values{
		"target_chembl_id": {best.TargetChemblID},
		"limit":            {strconv.Itoa(limit * c.OverFetchFactor)},
	}
	var mech struct {
		Mechanisms []mechanismRecord `json:"mechanisms"`
	}
	if err := c.getJSON(ctx, c.BaseURL+"/mechanism.json?"+mechParams.Encode(), &mech); err != nil {
		return nil, err
	}

	unique := pipeline.DedupBy(mech.Mechanisms, limit, func(m mechanismRecord) string {
		return m.MoleculeChemblID
	})

	names := c.moleculeNames(ctx, unique)

	drugs := make([]Drug, 0, len(unique))
	for _, m := range unique {
		name := m.MoleculeName
		if name == nil {
			if n, ok := names[m.MoleculeChemblID]; ok {
				name = n
			}
		}
		drugs = append(drugs, Drug{
			Name:       name,
			ChemblID:   m.MoleculeChemblID,
			Mechanism:  m.MechanismOfAction,
			ActionType: m.ActionType,
			MaxPhase:   m.MaxPhase.value(),
			URL:        compoundReportURL(m.MoleculeChemblID),
		})
	}

	return &TargetResult{
		TargetName:     best.PrefName,
		TargetType:     best.TargetType,
		Organism:       best.Organism,
		TargetChemblID: best.TargetChemblID,
		Drugs:          drugs,
	}, nil
}

// moleculeNames batch-resolves preferred names for the given mechanisms in
// one request. Best-effort: any failure leaves the map partial or empty
// and the caller surfaces null names instead of failing the lookup.
func (c *Client) moleculeNames(ctx context.Context, mechanisms []mechanismRecord) map[string]*string {
	names := make(map[string]*string)
	if len(mechanisms) == 0 {
		return names
	}

	ids := make([]string, 0, len(mechanisms))
	for _, m := range mechanisms {
		ids = append(ids, m.MoleculeChemblID)
	}

	var payload struct {
		Molecules []struct {
			MoleculeChemblID string  `json:"molecule_chembl_id"`
			PrefName         *string `json:"pref_name"`
		} `json:"molecules"`
	}
	if err := c.getJSON(ctx, c.BaseURL+"/molecule/set/"+strings.Join(ids, ";")+".json", &payload); err != nil {
		return names
	}
	for _, m := range payload.Molecules {
		names[m.MoleculeChemblID] = m.PrefName
	}
	return names
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return apierr.Upstreamf(err, "building ChEMBL request")
	}
	req.Header.Set("User-Agent", "KlaudAPI/2.1")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return apierr.Upstreamf(err, "ChEMBL unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apierr.Upstreamf(nil, "ChEMBL returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apierr.Upstreamf(err, "parsing ChEMBL response")
	}
	return nil
}

func compoundReportURL(chemblID string) string {
	return "https://www.ebi.ac.uk/chembl/compound_report_card/" + chemblID + "/"
}

func parseFloatPtr(s *string) *float64 {
	if s == nil {
		return nil
	}
	f, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseIntPtr(s *string) *int {
	if s == nil {
		return nil
	}
	n, err := strconv.Atoi(*s)
	if err != nil {
		return nil
	}
	return &n
}
