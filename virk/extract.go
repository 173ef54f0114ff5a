package virk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type searchResponse struct {
	Hits *struct {
		Hits []json.RawMessage `json:"hits"`
	} `json:"hits"`
}

// Hit is one entry of hits.hits. It is decoded only when extracted, so a
// malformed hit does not hide the hit count.
type Hit struct {
	raw json.RawMessage
}

// hitDocument holds the objects the extractor depends on as pointers so that
// their absence can be told apart from empty values.
type hitDocument struct {
	Source *hitSource `json:"_source"`
}

type hitSource struct {
	Virksomhed       *virksomhed       `json:"Vrvirksomhed"`
	ProduktionsEnhed *produktionsEnhed `json:"VrproduktionsEnhed"`
}

type virksomhed struct {
	CVRNummer leaf            `json:"cvrNummer"`
	Metadata  *entityMetadata `json:"virksomhedMetadata"`
}

type produktionsEnhed struct {
	Metadata *produktionsEnhedMetadata `json:"produktionsEnhedMetadata"`
}

type produktionsEnhedMetadata struct {
	entityMetadata
	NyesteCvrNummerRelation leaf `json:"nyesteCvrNummerRelation"`
}

type entityMetadata struct {
	NyesteHovedbranche *struct {
		Branchekode json.RawMessage `json:"branchekode"`
	} `json:"nyesteHovedbranche"`
	NyesteNavn *struct {
		Navn leaf `json:"navn"`
	} `json:"nyesteNavn"`
	NyesteBeliggenhedsadresse *struct {
		Vejnavn      leaf `json:"vejnavn"`
		HusnummerFra leaf `json:"husnummerFra"`
		Postnummer   leaf `json:"postnummer"`
	} `json:"nyesteBeliggenhedsadresse"`
}

// leaf is an optional scalar. The register stores some of these as numbers,
// so numbers are kept in their literal form. null and absent both give "".
type leaf string

func (l *leaf) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	switch {
	case bytes.Equal(b, []byte("null")):
		*l = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}

		*l = leaf(s)
	default:
		*l = leaf(b)
	}

	return nil
}

// ParseHits decodes a search response and returns hits.hits, which may be
// empty.
func ParseHits(body []byte) ([]Hit, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, decodeShapeError(err)
	}

	if resp.Hits == nil {
		return nil, &ShapeError{Path: "hits"}
	}

	if resp.Hits.Hits == nil {
		return nil, &ShapeError{Path: "hits.hits"}
	}

	hits := make([]Hit, len(resp.Hits.Hits))
	for i, raw := range resp.Hits.Hits {
		hits[i] = Hit{raw: raw}
	}

	return hits, nil
}

func decodeShapeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &ShapeError{
			Path:   typeErr.Field,
			Reason: fmt.Sprintf("got json %s, want %s", typeErr.Value, typeErr.Type),
		}
	}

	return &ShapeError{Path: "$", Reason: err.Error()}
}

// Extract flattens a hit into a Record, reading the legal entity or the
// production unit branch depending on kind.
func Extract(hit Hit, kind EntityKind) (*Record, error) {
	var doc hitDocument
	if len(hit.raw) > 0 {
		if err := json.Unmarshal(hit.raw, &doc); err != nil {
			return nil, decodeShapeError(err)
		}
	}

	if doc.Source == nil {
		return nil, &ShapeError{Path: "_source"}
	}

	switch kind {
	case EntityVirksomhed:
		const prefix = "_source.Vrvirksomhed"

		v := doc.Source.Virksomhed
		if v == nil {
			return nil, &ShapeError{Path: prefix}
		}

		if v.Metadata == nil {
			return nil, &ShapeError{Path: prefix + ".virksomhedMetadata"}
		}

		return v.Metadata.record(prefix+".virksomhedMetadata", string(v.CVRNummer))
	case EntityProduktionsEnhed:
		const prefix = "_source.VrproduktionsEnhed"

		p := doc.Source.ProduktionsEnhed
		if p == nil {
			return nil, &ShapeError{Path: prefix}
		}

		if p.Metadata == nil {
			return nil, &ShapeError{Path: prefix + ".produktionsEnhedMetadata"}
		}

		return p.Metadata.record(prefix+".produktionsEnhedMetadata", string(p.Metadata.NyesteCvrNummerRelation))
	default:
		return nil, fmt.Errorf("extract: unknown entity kind %d", kind)
	}
}

// ExtractAll extracts every hit, failing on the first shape violation.
func ExtractAll(hits []Hit, kind EntityKind) ([]Record, error) {
	records := make([]Record, 0, len(hits))

	for i := range hits {
		rec, err := Extract(hits[i], kind)
		if err != nil {
			return nil, fmt.Errorf("hit %d: %w", i, err)
		}

		records = append(records, *rec)
	}

	return records, nil
}

func (m *entityMetadata) record(path, cvrNo string) (*Record, error) {
	if m.NyesteHovedbranche == nil {
		return nil, &ShapeError{Path: path + ".nyesteHovedbranche"}
	}

	if m.NyesteNavn == nil {
		return nil, &ShapeError{Path: path + ".nyesteNavn"}
	}

	adr := m.NyesteBeliggenhedsadresse
	if adr == nil {
		return nil, &ShapeError{Path: path + ".nyesteBeliggenhedsadresse"}
	}

	return &Record{
		CVRNo:       cvrNo,
		Navn:        string(m.NyesteNavn.Navn),
		Vejnavn:     string(adr.Vejnavn),
		Husnr:       string(adr.HusnummerFra),
		Postnr:      string(adr.Postnummer),
		Branchekode: m.NyesteHovedbranche.Branchekode,
	}, nil
}
