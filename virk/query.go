package virk

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed templates/*.json.tmpl
var embeddedTemplates embed.FS

var templateFiles = map[QueryKind]string{
	QueryNameAddress: "name_address.json.tmpl",
	QueryCVRNumber:   "cvr_number.json.tmpl",
	QueryPNumber:     "p_number.json.tmpl",
}

// DefaultTemplates returns the query templates shipped with the package.
func DefaultTemplates() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		panic(err)
	}

	return sub
}

type queryData struct {
	Navn      string
	Vejnavn   string
	HusNrFra  string
	Postnr    string
	CVRNumber string
	PNumber   string
}

// QueryBuilder renders request bodies for the CVR search endpoint. All
// templates are parsed by NewQueryBuilder; a builder is read-only afterwards
// and safe for concurrent use.
type QueryBuilder struct {
	templates map[QueryKind]*template.Template
}

// NewQueryBuilder parses one template per QueryKind from fsys. Use
// DefaultTemplates for the built-in set or os.DirFS to load operator
// supplied templates with the same file names.
func NewQueryBuilder(fsys fs.FS) (*QueryBuilder, error) {
	b := QueryBuilder{
		templates: make(map[QueryKind]*template.Template, len(templateFiles)),
	}

	for kind, name := range templateFiles {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s template: %w", kind, err)
		}

		tmpl, err := template.New(name).
			Option("missingkey=error").
			Funcs(template.FuncMap{"json": jsonString}).
			Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", kind, err)
		}

		b.templates[kind] = tmpl
	}

	return &b, nil
}

// Build validates the fields kind needs and renders its template.
func (b *QueryBuilder) Build(kind QueryKind, p Params) (json.RawMessage, error) {
	tmpl, ok := b.templates[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownQueryKind, kind)
	}

	if err := p.ValidateQuery(kind); err != nil {
		return nil, err
	}

	data := queryData{
		Navn:      EscapeSearchTerm(p.OrgName),
		Vejnavn:   p.StreetName,
		HusNrFra:  p.HouseNoFrom,
		Postnr:    p.Zipcode,
		CVRNumber: p.CVRNumber,
		PNumber:   p.PNumber,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s query: %w", kind, err)
	}

	if !json.Valid(buf.Bytes()) {
		return nil, fmt.Errorf("render %s query: template produced invalid json", kind)
	}

	return buf.Bytes(), nil
}

// EscapeSearchTerm escapes forward slashes, which the backend's query string
// syntax treats as regular expression delimiters.
func EscapeSearchTerm(s string) string {
	return strings.ReplaceAll(s, "/", `\/`)
}

func jsonString(s string) (string, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(s); err != nil {
		return "", err
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}
