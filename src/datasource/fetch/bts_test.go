package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anu-justdidit/airline-dash-app/src/config"
	"github.com/anu-justdidit/airline-dash-app/src/datasource/file"
	"github.com/anu-justdidit/airline-dash-app/src/processor"
	"github.com/anu-justdidit/airline-dash-app/src/storage"
)

const btsCSV = `Year,FlightDate,Airline,Origin,Dest,DepDelayMinutes,ArrDelayMinutes,Cancelled,Diverted,Tail_Number
2024,2024-01-01,AA,JFK,LAX,10.00,12.00,0.00,0.00,N1
2024,2024-01-01,DL,ATL,SEA,0.00,,1.00,0.00,N2
`

func zipOf(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newFetcher(t *testing.T, url string) *Fetcher {
	t.Helper()
	cfg, dcfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Fetch.URLTemplate = url + "/ontime_%d_%d.zip"
	cfg.Fetch.Timeout = config.Duration(5 * time.Second)

	logger, err := storage.NewLogger(filepath.Join(t.TempDir(), "fetch.log"))
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })
	return NewFetcher(cfg, dcfg, logger)
}

func TestExtractBTS(t *testing.T) {
	df, err := ExtractBTS(zipOf(t, "On_Time.csv", btsCSV))
	require.NoError(t, err)
	assert.Equal(t, processor.BTSColumns, df.Names())
	assert.Equal(t, 2, df.Nrow())

	_, err = ExtractBTS(zipOf(t, "readme.txt", "hello"))
	assert.ErrorIs(t, err, ErrNoCSV)

	_, err = ExtractBTS([]byte("not a zip"))
	assert.Error(t, err)
}

func TestRunDownloads(t *testing.T) {
	payload := zipOf(t, "On_Time.csv", btsCSV)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ontime_2024_1.zip", r.URL.Path)
		w.Write(payload)
	}))
	defer srv.Close()

	f := newFetcher(t, srv.URL)
	res, err := f.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Synthetic)
	assert.Equal(t, 2, res.Rows)
	assert.FileExists(t, filepath.Join(f.Dir, "ontime_2024_01.zip"))

	df, err := file.ReadCSV(res.BTSPath)
	require.NoError(t, err)
	assert.Equal(t, processor.BTSColumns, df.Names())

	assert.True(t, res.SurveySampled)
	survey, err := file.ReadCSV(res.SurveyPath)
	require.NoError(t, err)
	assert.Equal(t, 1000, survey.Nrow())
}

func TestRunFallsBackToSynthetic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := newFetcher(t, srv.URL)
	require.NoError(t, os.MkdirAll(f.Dir, 0755))
	existing := []byte("satisfaction,Class\nsatisfied,Eco\n")
	require.NoError(t, os.WriteFile(filepath.Join(f.Dir, SurveyFile), existing, 0644))

	res, err := f.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Synthetic)
	assert.Equal(t, 1000, res.Rows)
	assert.False(t, res.SurveySampled)

	got, err := os.ReadFile(res.SurveyPath)
	require.NoError(t, err)
	assert.Equal(t, existing, got)
}

func TestSyntheticIsDeterministic(t *testing.T) {
	_, dcfg := config.Default()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := SyntheticBTS(50, 3, start, dcfg)
	b := SyntheticBTS(50, 3, start, dcfg)
	require.NoError(t, a.Err)
	assert.Equal(t, a.Records(), b.Records())
	assert.Equal(t, "2024-01-01 01:00:00", a.Col(processor.BTSFlightDate).Elem(1).String())

	for _, code := range a.Col(processor.BTSAirline).Records() {
		assert.Contains(t, dcfg.AirlineCodes, code)
	}

	survey := SampleSurvey(20, 3, dcfg)
	require.NoError(t, survey.Err)
	for _, v := range survey.Col("satisfaction").Records() {
		assert.Contains(t, []string{"satisfied", "neutral or dissatisfied"}, v)
	}
}

func TestSampleSurveyFeedsMerge(t *testing.T) {
	_, dcfg := config.Default()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	merged, err := processor.MergeDelaySurvey(SyntheticBTS(500, 9, start, dcfg), SampleSurvey(300, 9, dcfg), dcfg)
	require.NoError(t, err)
	assert.Greater(t, merged.Nrow(), 0)
}
