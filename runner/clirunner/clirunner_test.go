package clirunner

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosom/virk-cvr/runner"
	"github.com/gosom/virk-cvr/virk"
)

const oneHit = `{"hits":{"hits":[{"_source":{"Vrvirksomhed":{
	"cvrNummer":25052943,
	"virksomhedMetadata":{
		"nyesteHovedbranche":{"branchekode":"620100"},
		"nyesteNavn":{"navn":"MAGENTA ApS"},
		"nyesteBeliggenhedsadresse":{"vejnavn":"Pilestræde","husnummerFra":43,"postnummer":1112}
	}
}}}]}}`

func newRegister(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func newConfig(mode int, url string) *runner.Config {
	return &runner.Config{
		RunMode:     mode,
		Username:    "virk-user",
		Password:    "s3cret",
		EndpointURL: url,
		Output:      runner.OutputCSV,
		LogFormat:   runner.LogFormatText,
		OrgName:     "Magenta ApS",
		StreetName:  "Pilestræde",
		HouseNoFrom: "43",
		Zipcode:     "1112",
		CVRNumber:   "25052943",
		PNumber:     "1003388394",
	}
}

func TestRunSearch(t *testing.T) {
	srv := newRegister(t, http.StatusOK, oneHit)

	var out bytes.Buffer

	r, err := New(newConfig(runner.RunModeSearch, srv.URL), &out)
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background()))
	require.NoError(t, r.Close(context.Background()))

	assert.Equal(t, "25052943;MAGENTA ApS;Pilestræde;43;1112;620100;Magenta ApS;Pilestræde;43;1112\n", out.String())
}

func TestRunCVR(t *testing.T) {
	srv := newRegister(t, http.StatusOK, oneHit)

	var out bytes.Buffer

	cfg := newConfig(runner.RunModeCVR, srv.URL)
	cfg.Output = runner.OutputJSON

	r, err := New(cfg, &out)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	assert.JSONEq(t, `[{"cvr_no":"25052943","navn":"MAGENTA ApS","vejnavn":"Pilestræde","husnr":"43","postnr":"1112","branchekode":"620100"}]`, out.String())
}

func TestRunPNumberNoHits(t *testing.T) {
	srv := newRegister(t, http.StatusOK, `{"hits":{"hits":[]}}`)

	var out bytes.Buffer

	r, err := New(newConfig(runner.RunModePNumber, srv.URL), &out)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	assert.Empty(t, out.String())
}

func TestRunErrors(t *testing.T) {
	t.Run("no unique hit", func(t *testing.T) {
		srv := newRegister(t, http.StatusOK, `{"hits":{"hits":[]}}`)

		var out bytes.Buffer

		r, err := New(newConfig(runner.RunModeSearch, srv.URL), &out)
		require.NoError(t, err)

		err = r.Run(context.Background())
		require.ErrorIs(t, err, virk.ErrAmbiguousOrNoMatch)
		assert.Empty(t, out.String())
	})

	t.Run("http error", func(t *testing.T) {
		srv := newRegister(t, http.StatusUnauthorized, "Unauthorized")

		r, err := New(newConfig(runner.RunModeCVR, srv.URL), &bytes.Buffer{})
		require.NoError(t, err)
		require.ErrorIs(t, r.Run(context.Background()), virk.ErrHTTP)
	})

	t.Run("missing credentials", func(t *testing.T) {
		cfg := newConfig(runner.RunModeCVR, "")

		r, err := New(cfg, &bytes.Buffer{})
		require.NoError(t, err)
		require.ErrorIs(t, r.Run(context.Background()), virk.ErrMissingCredentials)
	})
}

func TestNewInvalidRunMode(t *testing.T) {
	_, err := New(newConfig(runner.RunModeLambda, "http://x"), nil)
	require.ErrorIs(t, err, runner.ErrInvalidRunMode)
}
