package virk

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Record is the flattened view of a single CVR search hit.
type Record struct {
	CVRNo       string          `json:"cvr_no"`
	Navn        string          `json:"navn"`
	Vejnavn     string          `json:"vejnavn"`
	Husnr       string          `json:"husnr"`
	Postnr      string          `json:"postnr"`
	Branchekode json.RawMessage `json:"branchekode"`
}

// BranchekodeString renders the industry code for display. String codes are
// unquoted, anything else is returned as raw JSON.
func (r Record) BranchekodeString() string {
	if len(r.Branchekode) == 0 || string(r.Branchekode) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(r.Branchekode, &s); err == nil {
		return s
	}

	return strings.TrimSpace(string(r.Branchekode))
}

func (r Record) Fields() []string {
	return []string{
		r.CVRNo,
		r.Navn,
		r.Vejnavn,
		r.Husnr,
		r.Postnr,
		r.BranchekodeString(),
	}
}

type QueryKind int

const (
	QueryNameAddress QueryKind = iota + 1
	QueryCVRNumber
	QueryPNumber
)

func (k QueryKind) String() string {
	switch k {
	case QueryNameAddress:
		return "name_address"
	case QueryCVRNumber:
		return "cvr_number"
	case QueryPNumber:
		return "p_number"
	default:
		return "unknown"
	}
}

// ParseQueryKind is the inverse of QueryKind.String.
func ParseQueryKind(s string) (QueryKind, error) {
	for _, k := range []QueryKind{QueryNameAddress, QueryCVRNumber, QueryPNumber} {
		if k.String() == s {
			return k, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownQueryKind, s)
}

// EntityKind selects which sub-object of a hit the extractor reads.
type EntityKind int

const (
	EntityVirksomhed EntityKind = iota + 1
	EntityProduktionsEnhed
)

func (k EntityKind) String() string {
	switch k {
	case EntityVirksomhed:
		return "Vrvirksomhed"
	case EntityProduktionsEnhed:
		return "VrproduktionsEnhed"
	default:
		return "unknown"
	}
}
