package feed

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appLog "confdash/internal/log"
)

func TestMain(m *testing.M) {
	appLog.SetOutput(io.Discard)
	m.Run()
}

const conferenceYAML = `
- title: ABC
  description: ABC Conference
  sub: AI
  rank:
    ccf: A
  dblp: abc
  confs:
    - year: 2025
      id: abc25
      link: https://abc.example.org/2025
      timezone: UTC-5
      timeline:
        - deadline: '2025-12-01 23:59:59'
          comment: paper
      place: Lisbon, Portugal
      date: June 1-4, 2025
- title: ''
  description: no title, skipped
- title: XYZ
  confs:
    - year: 2024
      id: xyz24
      timezone: AoE
      timeline:
        - deadline: TBD
`

const acceptanceYAML = `
- title: ABC
  accept_rates:
    - year: 2024
      submitted: 1000
      accepted: 250
      rate: '25.0%'
      source: proceedings
- accept_rates: []
`

func TestDecodeConferences(t *testing.T) {
	got, err := DecodeConferences([]byte(conferenceYAML))
	require.NoError(t, err)
	require.Len(t, got, 2)

	abc := got[0]
	assert.Equal(t, "ABC", abc.Title)
	assert.Equal(t, "AI", abc.Sub)
	assert.Equal(t, "A", abc.Rank.CCF)
	require.Len(t, abc.Instances, 1)
	assert.Equal(t, "UTC-5", abc.Instances[0].Timezone)
	require.Len(t, abc.Instances[0].Timeline, 1)
	assert.Equal(t, "2025-12-01 23:59:59", abc.Instances[0].Timeline[0].Deadline)

	assert.Equal(t, "XYZ", got[1].Title)
}

func TestDecodeConferences_SkipsMalformedRecords(t *testing.T) {
	doc := `
- title: GOOD
- title: BAD
  confs: "not a list"
- 42
`
	got, err := DecodeConferences([]byte(doc))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "GOOD", got[0].Title)
}

func TestDecodeConferences_NonListIsError(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"mapping root", "title: ABC"},
		{"scalar root", "just text"},
		{"empty", ""},
		{"invalid yaml", ":\n\t-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeConferences([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestDecodeAcceptances(t *testing.T) {
	got, err := DecodeAcceptances([]byte(acceptanceYAML))
	require.NoError(t, err)
	require.Len(t, got, 1)

	rate, ok := got[0].RateFor(2024)
	require.True(t, ok)
	assert.Equal(t, 1000, rate.Submitted)
	assert.Equal(t, 250, rate.Accepted)
	assert.Equal(t, "25.0%", rate.Rate)

	_, ok = got[0].RateFor(1999)
	assert.False(t, ok)
}

func TestFetchBoth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/allconf.yml":
			io.WriteString(w, conferenceYAML)
		case "/allacc.yml":
			io.WriteString(w, acceptanceYAML)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/allconf.yml", srv.URL+"/allacc.yml")
	p, err := c.FetchBoth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, conferenceYAML, string(p.Conferences))
	assert.Equal(t, acceptanceYAML, string(p.Acceptances))
}

func TestFetchBoth_EitherFailureFailsTheCycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/allconf.yml" {
			io.WriteString(w, conferenceYAML)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/allconf.yml", srv.URL+"/allacc.yml")
	_, err := c.FetchBoth(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acceptances")
}
