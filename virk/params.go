package virk

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

type Credentials struct {
	Username    string `json:"username" validate:"required"`
	Password    string `json:"password" validate:"required"`
	EndpointURL string `json:"endpoint_url" validate:"required"`
}

// NameAddressQuery holds the minimum an organisation search needs.
// HouseNoFrom is sent as-is: a letter suffix such as "12B" is not split off
// into its own field, so such numbers rarely match.
type NameAddressQuery struct {
	OrgName     string `json:"org_name" validate:"required"`
	StreetName  string `json:"street_name" validate:"required"`
	HouseNoFrom string `json:"house_no_from" validate:"required"`
	Zipcode     string `json:"zipcode" validate:"required"`
}

type CVRQuery struct {
	CVRNumber string `json:"cvr_number" validate:"required"`
}

type PNumberQuery struct {
	PNumber string `json:"p_number" validate:"required"`
}

// Params is the full input of a lookup. Only the credentials and the
// fields of the selected query kind are looked at.
type Params struct {
	Credentials
	NameAddressQuery
	CVRQuery
	PNumberQuery
}

var paramAliases = map[string][]string{
	"username":      {"username", "virk_usr"},
	"password":      {"password", "virk_pwd"},
	"endpoint_url":  {"endpoint_url", "virk_url"},
	"org_name":      {"org_name"},
	"street_name":   {"street_name"},
	"house_no_from": {"house_no_from"},
	"zipcode":       {"zipcode"},
	"cvr_number":    {"cvr_number"},
	"p_number":      {"p_number"},
}

// ParamsFromMap reads a parameter mapping. Credentials may be given either
// as username/password/endpoint_url or as virk_usr/virk_pwd/virk_url.
// Unknown keys are ignored. Passwords are taken verbatim, every other value
// is normalised.
func ParamsFromMap(m map[string]string) Params {
	raw := func(key string) string {
		for _, alias := range paramAliases[key] {
			if v := m[alias]; v != "" {
				return v
			}
		}

		return ""
	}

	get := func(key string) string {
		return normalizeParam(raw(key))
	}

	return Params{
		Credentials: Credentials{
			Username:    get("username"),
			Password:    raw("password"),
			EndpointURL: get("endpoint_url"),
		},
		NameAddressQuery: NameAddressQuery{
			OrgName:     get("org_name"),
			StreetName:  get("street_name"),
			HouseNoFrom: get("house_no_from"),
			Zipcode:     get("zipcode"),
		},
		CVRQuery: CVRQuery{
			CVRNumber: get("cvr_number"),
		},
		PNumberQuery: PNumberQuery{
			PNumber: get("p_number"),
		},
	}
}

// normalizeParam trims whitespace and composes decomposed characters so that
// "å" typed as "a" + combining ring matches the indexed form.
func normalizeParam(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func (p Params) ValidateCredentials() error {
	return validateFields(p.Credentials, ErrMissingCredentials)
}

// ValidateQuery checks the search fields required by kind.
func (p Params) ValidateQuery(kind QueryKind) error {
	switch kind {
	case QueryNameAddress:
		return validateFields(p.NameAddressQuery, ErrMissingSearchFields)
	case QueryCVRNumber:
		return validateFields(p.CVRQuery, ErrMissingSearchFields)
	case QueryPNumber:
		return validateFields(p.PNumberQuery, ErrMissingSearchFields)
	default:
		return ErrUnknownQueryKind
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}

		return name
	})

	return v
}

func validateFields(s any, kind error) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fe := &FieldsError{Kind: kind}
	for _, v := range verrs {
		fe.Fields = append(fe.Fields, v.Field())
	}

	return fe
}
