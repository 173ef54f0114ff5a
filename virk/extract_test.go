package virk

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func virksomhedHit(cvr any, mutate func(meta map[string]any)) map[string]any {
	meta := map[string]any{
		"nyesteHovedbranche": map[string]any{
			"branchekode":  "620100",
			"branchetekst": "Computerprogrammering",
		},
		"nyesteNavn": map[string]any{
			"navn": "MAGENTA ApS",
		},
		"nyesteBeliggenhedsadresse": map[string]any{
			"vejnavn":      "Pilestræde",
			"husnummerFra": 43,
			"postnummer":   1112,
		},
	}

	if mutate != nil {
		mutate(meta)
	}

	return map[string]any{
		"_source": map[string]any{
			"Vrvirksomhed": map[string]any{
				"cvrNummer":          cvr,
				"virksomhedMetadata": meta,
			},
		},
	}
}

func produktionsEnhedHit(pNumber string, mutate func(meta map[string]any)) map[string]any {
	meta := map[string]any{
		"nyesteCvrNummerRelation": 25052943,
		"nyesteHovedbranche": map[string]any{
			"branchekode": "620100",
		},
		"nyesteNavn": map[string]any{
			"navn": "MAGENTA ApS Aarhus " + pNumber,
		},
		"nyesteBeliggenhedsadresse": map[string]any{
			"vejnavn":      "Åboulevarden",
			"husnummerFra": "70",
			"postnummer":   "8000",
		},
	}

	if mutate != nil {
		mutate(meta)
	}

	return map[string]any{
		"_source": map[string]any{
			"VrproduktionsEnhed": map[string]any{
				"pNummer":                  pNumber,
				"produktionsEnhedMetadata": meta,
			},
		},
	}
}

func searchBody(t *testing.T, hits ...map[string]any) []byte {
	t.Helper()

	if hits == nil {
		hits = []map[string]any{}
	}

	b, err := json.Marshal(map[string]any{
		"took": 3,
		"hits": map[string]any{
			"total": len(hits),
			"hits":  hits,
		},
	})
	require.NoError(t, err)

	return b
}

func parseSingle(t *testing.T, hit map[string]any) Hit {
	t.Helper()

	hits, err := ParseHits(searchBody(t, hit))
	require.NoError(t, err)
	require.Len(t, hits, 1)

	return hits[0]
}

func TestExtractVirksomhed(t *testing.T) {
	hit := parseSingle(t, virksomhedHit(25052943, nil))

	rec, err := Extract(hit, EntityVirksomhed)
	require.NoError(t, err)

	assert.Equal(t, "25052943", rec.CVRNo)
	assert.Equal(t, "MAGENTA ApS", rec.Navn)
	assert.Equal(t, "Pilestræde", rec.Vejnavn)
	assert.Equal(t, "43", rec.Husnr)
	assert.Equal(t, "1112", rec.Postnr)
	assert.JSONEq(t, `"620100"`, string(rec.Branchekode))
	assert.Equal(t, "620100", rec.BranchekodeString())
}

func TestExtractProduktionsEnhed(t *testing.T) {
	hit := parseSingle(t, produktionsEnhedHit("1003388394", nil))

	rec, err := Extract(hit, EntityProduktionsEnhed)
	require.NoError(t, err)

	assert.Equal(t, "25052943", rec.CVRNo)
	assert.Equal(t, "MAGENTA ApS Aarhus 1003388394", rec.Navn)
	assert.Equal(t, "Åboulevarden", rec.Vejnavn)
	assert.Equal(t, "70", rec.Husnr)
	assert.Equal(t, "8000", rec.Postnr)
}

func TestExtractOptionalLeavesDefaultToEmpty(t *testing.T) {
	hit := parseSingle(t, virksomhedHit(nil, func(meta map[string]any) {
		meta["nyesteHovedbranche"] = map[string]any{}
		meta["nyesteNavn"] = map[string]any{}
		meta["nyesteBeliggenhedsadresse"] = map[string]any{"vejnavn": nil}
	}))

	rec, err := Extract(hit, EntityVirksomhed)
	require.NoError(t, err)

	assert.Equal(t, Record{}, Record{
		CVRNo:   rec.CVRNo,
		Navn:    rec.Navn,
		Vejnavn: rec.Vejnavn,
		Husnr:   rec.Husnr,
		Postnr:  rec.Postnr,
	})
	assert.Empty(t, rec.BranchekodeString())

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cvr_no":"","navn":"","vejnavn":"","husnr":"","postnr":"","branchekode":null}`, string(out))
}

func TestExtractOpaqueBranchekode(t *testing.T) {
	hit := parseSingle(t, virksomhedHit(1, func(meta map[string]any) {
		meta["nyesteHovedbranche"] = map[string]any{
			"branchekode": map[string]any{"kode": "620100", "version": 2007},
		}
	}))

	rec, err := Extract(hit, EntityVirksomhed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kode":"620100","version":2007}`, string(rec.Branchekode))
	assert.JSONEq(t, `{"kode":"620100","version":2007}`, rec.BranchekodeString())
}

func TestExtractShapeViolations(t *testing.T) {
	const vmeta = "_source.Vrvirksomhed.virksomhedMetadata"
	const pmeta = "_source.VrproduktionsEnhed.produktionsEnhedMetadata"

	drop := func(key string) func(map[string]any) {
		return func(meta map[string]any) { delete(meta, key) }
	}
	null := func(key string) func(map[string]any) {
		return func(meta map[string]any) { meta[key] = nil }
	}

	tests := []struct {
		name string
		hit  map[string]any
		kind EntityKind
		path string
	}{
		{"no address", virksomhedHit(1, drop("nyesteBeliggenhedsadresse")), EntityVirksomhed, vmeta + ".nyesteBeliggenhedsadresse"},
		{"null address", virksomhedHit(1, null("nyesteBeliggenhedsadresse")), EntityVirksomhed, vmeta + ".nyesteBeliggenhedsadresse"},
		{"no name", virksomhedHit(1, drop("nyesteNavn")), EntityVirksomhed, vmeta + ".nyesteNavn"},
		{"no branche", virksomhedHit(1, drop("nyesteHovedbranche")), EntityVirksomhed, vmeta + ".nyesteHovedbranche"},
		{"unit without address", produktionsEnhedHit("1", drop("nyesteBeliggenhedsadresse")), EntityProduktionsEnhed, pmeta + ".nyesteBeliggenhedsadresse"},
		{"unit without name", produktionsEnhedHit("1", drop("nyesteNavn")), EntityProduktionsEnhed, pmeta + ".nyesteNavn"},
		{"unit read as entity", produktionsEnhedHit("1", nil), EntityVirksomhed, "_source.Vrvirksomhed"},
		{"entity read as unit", virksomhedHit(1, nil), EntityProduktionsEnhed, "_source.VrproduktionsEnhed"},
		{"no source", map[string]any{"_id": "x"}, EntityVirksomhed, "_source"},
		{"null source", map[string]any{"_source": nil}, EntityVirksomhed, "_source"},
		{
			name: "no metadata",
			hit: map[string]any{"_source": map[string]any{
				"Vrvirksomhed": map[string]any{"cvrNummer": 1},
			}},
			kind: EntityVirksomhed,
			path: vmeta,
		},
		{
			name: "no unit metadata",
			hit: map[string]any{"_source": map[string]any{
				"VrproduktionsEnhed": map[string]any{"pNummer": 1},
			}},
			kind: EntityProduktionsEnhed,
			path: pmeta,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit := parseSingle(t, tt.hit)

			rec, err := Extract(hit, tt.kind)
			require.ErrorIs(t, err, ErrShapeViolation)
			assert.Nil(t, rec)

			var shapeErr *ShapeError
			require.ErrorAs(t, err, &shapeErr)
			assert.Equal(t, tt.path, shapeErr.Path)
		})
	}
}

func TestParseHits(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		hits    int
		badPath string
	}{
		{"empty", `{"hits":{"hits":[]}}`, 0, ""},
		{"two", `{"hits":{"hits":[{"_source":{}},{"_source":{}}]}}`, 2, ""},
		{"no hits object", `{"took":1}`, 0, "hits"},
		{"null hits", `{"hits":null}`, 0, "hits"},
		{"no hits list", `{"hits":{"total":0}}`, 0, "hits.hits"},
		{"hits list not an array", `{"hits":{"hits":"none"}}`, 0, "hits.hits"},
		{"malformed hits are counted", `{"hits":{"hits":[{"_source":"oops"},null]}}`, 2, ""},
		{"not json", `<html>gateway timeout</html>`, 0, "$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := ParseHits([]byte(tt.body))
			if tt.badPath == "" {
				require.NoError(t, err)
				assert.Len(t, hits, tt.hits)

				return
			}

			require.ErrorIs(t, err, ErrShapeViolation)

			var shapeErr *ShapeError
			require.ErrorAs(t, err, &shapeErr)
			assert.Equal(t, tt.badPath, shapeErr.Path)
		})
	}
}

func TestExtractWrongType(t *testing.T) {
	body := `{"hits":{"hits":[{"_source":{"Vrvirksomhed":{"virksomhedMetadata":"oops"}}}]}}`

	hits, err := ParseHits([]byte(body))
	require.NoError(t, err)
	require.Len(t, hits, 1)

	rec, err := Extract(hits[0], EntityVirksomhed)
	require.ErrorIs(t, err, ErrShapeViolation)
	assert.Nil(t, rec)

	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.NotEmpty(t, shapeErr.Reason)
	assert.True(t, strings.HasSuffix(shapeErr.Path, "virksomhedMetadata"), shapeErr.Path)
}

func TestExtractAll(t *testing.T) {
	for _, n := range []int{0, 1, 3} {
		t.Run(fmt.Sprintf("%d hits", n), func(t *testing.T) {
			var raw []map[string]any
			for i := 0; i < n; i++ {
				raw = append(raw, virksomhedHit(10000000+i, nil))
			}

			hits, err := ParseHits(searchBody(t, raw...))
			require.NoError(t, err)

			records, err := ExtractAll(hits, EntityVirksomhed)
			require.NoError(t, err)
			require.Len(t, records, n)

			for i := range hits {
				rec, err := Extract(hits[i], EntityVirksomhed)
				require.NoError(t, err)
				assert.Equal(t, *rec, records[i])
				assert.Equal(t, fmt.Sprint(10000000+i), records[i].CVRNo)
			}
		})
	}
}

func TestExtractAllStopsOnShapeViolation(t *testing.T) {
	hits, err := ParseHits(searchBody(t,
		virksomhedHit(1, nil),
		virksomhedHit(2, func(meta map[string]any) { delete(meta, "nyesteNavn") }),
	))
	require.NoError(t, err)

	records, err := ExtractAll(hits, EntityVirksomhed)
	require.ErrorIs(t, err, ErrShapeViolation)
	assert.Nil(t, records)
	assert.Contains(t, err.Error(), "hit 1")
}

func TestRecordFields(t *testing.T) {
	rec := Record{
		CVRNo:       "25052943",
		Navn:        "MAGENTA ApS",
		Vejnavn:     "Pilestræde",
		Husnr:       "43",
		Postnr:      "1112",
		Branchekode: json.RawMessage(`"620100"`),
	}

	assert.Equal(t, []string{"25052943", "MAGENTA ApS", "Pilestræde", "43", "1112", "620100"}, rec.Fields())
}
