package election

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gestaozabele/eleicoes/internal/repo"
)

type stubRepo struct {
	elections []Election
	codes     []DicoCode
	results   []Result
	err       error
}

func (s *stubRepo) ListElections(ctx context.Context) ([]Election, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.elections, nil
}

func (s *stubRepo) GetElection(ctx context.Context, id string) (Election, error) {
	if s.err != nil {
		return Election{}, s.err
	}
	for _, e := range s.elections {
		if e.ElectionID == id {
			return e, nil
		}
	}
	return Election{}, repo.ErrNotFound
}

func (s *stubRepo) ListDicoCodes(ctx context.Context, filter DicoFilter) ([]DicoCode, error) {
	out := []DicoCode{}
	for _, c := range s.codes {
		if filter.Level != nil && c.Level != *filter.Level {
			continue
		}
		if filter.Parent != nil && (c.ParentCode == nil || *c.ParentCode != *filter.Parent) {
			continue
		}
		out = append(out, c)
	}
	return out, s.err
}

func (s *stubRepo) GetDicoCode(ctx context.Context, code string) (DicoCode, []DicoCode, error) {
	for _, c := range s.codes {
		if c.Code != code {
			continue
		}
		var children []DicoCode
		for _, child := range s.codes {
			if child.ParentCode != nil && *child.ParentCode == code {
				children = append(children, child)
			}
		}
		return c, children, nil
	}
	return DicoCode{}, nil, repo.ErrNotFound
}

func (s *stubRepo) ListResults(ctx context.Context, electionID string, level *int) ([]Result, error) {
	levels := map[string]int{}
	for _, c := range s.codes {
		levels[c.Code] = c.Level
	}
	out := []Result{}
	for _, r := range s.results {
		if r.ElectionID != electionID {
			continue
		}
		if level != nil && levels[r.DicoCode] != *level {
			continue
		}
		out = append(out, r)
	}
	return out, s.err
}

func (s *stubRepo) ListResultsByGeography(ctx context.Context, electionID, dicoCode string) ([]Result, error) {
	out := []Result{}
	for _, r := range s.results {
		if r.ElectionID == electionID && r.DicoCode == dicoCode {
			out = append(out, r)
		}
	}
	return out, s.err
}

func strPtr(s string) *string { return &s }

func fixtureRepo() *stubRepo {
	return &stubRepo{
		elections: []Election{
			{ElectionID: "AR2024", Name: "Legislativas 2024", Date: Date{Time: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)}, Type: strPtr("legislative")},
			{ElectionID: "PR2021", Name: "Presidenciais 2021", Date: Date{Time: time.Date(2021, 1, 24, 0, 0, 0, 0, time.UTC)}, Type: strPtr("presidential")},
		},
		codes: []DicoCode{
			{Code: "01", Level: LevelDistrito, Name: "Aveiro"},
			{Code: "0101", Level: LevelConcelho, Name: "Águeda", ParentCode: strPtr("01")},
			{Code: "0102", Level: LevelConcelho, Name: "Albergaria-a-Velha", ParentCode: strPtr("01")},
			{Code: "010101", Level: LevelFreguesia, Name: "Aguada de Cima", ParentCode: strPtr("0101")},
			{Code: "11", Level: LevelDistrito, Name: "Lisboa"},
			{Code: "1106", Level: LevelConcelho, Name: "Lisboa", ParentCode: strPtr("11")},
		},
		results: []Result{
			{ElectionID: "AR2024", DicoCode: "0101", PartyCode: "PS", Votes: 200},
			{ElectionID: "AR2024", DicoCode: "0101", PartyCode: "BE", Votes: 0},
			{ElectionID: "AR2024", DicoCode: "0101", PartyCode: "PPD/PSD", Votes: 300},
			{ElectionID: "AR2024", DicoCode: "010101", PartyCode: "PS", Votes: 0},
			{ElectionID: "AR2024", DicoCode: "01", PartyCode: "PS", Votes: 50, Percentage: pct("45.50")},
		},
	}
}

func newTestRouter(repo ResultsRepository) http.Handler {
	r := chi.NewRouter()
	Mount(r, NewHandler(NewService(repo, nil, 0)))
	return r
}

func doGet(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestElectionHandlersStatus(t *testing.T) {
	h := newTestRouter(fixtureRepo())

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"elections", "/elections", http.StatusOK},
		{"election", "/elections/AR2024", http.StatusOK},
		{"election-missing", "/elections/nonexistent", http.StatusNotFound},
		{"dico", "/dico", http.StatusOK},
		{"dico-level", "/dico?level=2", http.StatusOK},
		{"dico-bad-level", "/dico?level=dois", http.StatusBadRequest},
		{"dico-code", "/dico/01", http.StatusOK},
		{"dico-missing", "/dico/99", http.StatusNotFound},
		{"results", "/results/AR2024", http.StatusOK},
		{"results-unknown-election", "/results/XX", http.StatusOK},
		{"results-bad-level", "/results/AR2024?level=x", http.StatusBadRequest},
		{"results-geo", "/results/AR2024/0101", http.StatusOK},
		{"results-geo-missing", "/results/AR2024/9999", http.StatusNotFound},
		{"summary", "/results/AR2024/0101/summary", http.StatusOK},
		{"summary-missing", "/results/AR2024/9999/summary", http.StatusNotFound},
		{"stats", "/stats/AR2024", http.StatusOK},
		{"stats-missing", "/stats/XX", http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doGet(t, h, tc.path)
			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d (%s)", tc.status, rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("unexpected content type %q", ct)
			}
		})
	}
}

func TestNotFoundMessages(t *testing.T) {
	h := newTestRouter(fixtureRepo())

	cases := map[string]string{
		"/elections/nonexistent":       "Election not found",
		"/dico/99":                     "DICO code not found",
		"/results/AR2024/9999":         "No results found",
		"/results/AR2024/9999/summary": "No results found",
		"/stats/nonexistent":           "Election not found",
	}
	for path, want := range cases {
		body := decode[map[string]string](t, doGet(t, h, path))
		if body["error"] != want {
			t.Fatalf("%s: expected %q got %q", path, want, body["error"])
		}
	}
}

func TestGetElectionFields(t *testing.T) {
	h := newTestRouter(fixtureRepo())

	body := decode[map[string]any](t, doGet(t, h, "/elections/PR2021"))

	if body["election_id"] != "PR2021" || body["name"] != "Presidenciais 2021" || body["date"] != "2021-01-24" || body["type"] != "presidential" {
		t.Fatalf("unexpected election %v", body)
	}
}

func TestListElectionsEmpty(t *testing.T) {
	h := newTestRouter(&stubRepo{elections: []Election{}})

	rec := doGet(t, h, "/elections")
	if rec.Code != http.StatusOK || rec.Body.String() != "[]\n" {
		t.Fatalf("expected empty array got %d %q", rec.Code, rec.Body.String())
	}
}

func TestListDicoFilters(t *testing.T) {
	h := newTestRouter(fixtureRepo())

	tests := []struct {
		path  string
		codes []string
	}{
		{"/dico", []string{"01", "0101", "0102", "010101", "11", "1106"}},
		{"/dico?level=2", []string{"0101", "0102", "1106"}},
		{"/dico?parent=01", []string{"0101", "0102"}},
		{"/dico?level=2&parent=11", []string{"1106"}},
		{"/dico?level=3&parent=11", []string{}},
		{"/dico?level=0", []string{"01", "0101", "0102", "010101", "11", "1106"}},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			got := decode[[]DicoCode](t, doGet(t, h, tc.path))
			if len(got) != len(tc.codes) {
				t.Fatalf("expected %v got %+v", tc.codes, got)
			}
			for i, c := range got {
				if c.Code != tc.codes[i] {
					t.Fatalf("expected %v got %+v", tc.codes, got)
				}
			}
		})
	}
}

func TestGetDicoChildren(t *testing.T) {
	h := newTestRouter(fixtureRepo())

	got := decode[DicoDetail](t, doGet(t, h, "/dico/01"))

	if got.Code != "01" || got.Name != "Aveiro" || got.ParentCode != nil {
		t.Fatalf("unexpected code %+v", got.DicoCode)
	}
	if len(got.Children) != 2 || got.Children[0].Code != "0101" || got.Children[1].Code != "0102" {
		t.Fatalf("expected two direct children got %+v", got.Children)
	}
	if got.Children[0].Name != "Águeda" || *got.Children[0].ParentCode != "01" || got.Children[0].Level != LevelConcelho {
		t.Fatalf("child not verbatim %+v", got.Children[0])
	}

	leaf := decode[map[string]any](t, doGet(t, h, "/dico/010101"))
	if children, ok := leaf["children"].([]any); !ok || len(children) != 0 {
		t.Fatalf("expected empty children array got %v", leaf["children"])
	}
}

func TestListResultsByLevel(t *testing.T) {
	h := newTestRouter(fixtureRepo())

	all := decode[[]Result](t, doGet(t, h, "/results/AR2024"))
	if len(all) != 5 {
		t.Fatalf("expected 5 results got %d", len(all))
	}

	concelhos := decode[[]Result](t, doGet(t, h, "/results/AR2024?level=2"))
	if len(concelhos) != 3 {
		t.Fatalf("expected 3 concelho results got %d", len(concelhos))
	}
	for _, r := range concelhos {
		if r.DicoCode != "0101" {
			t.Fatalf("unexpected geography %s", r.DicoCode)
		}
	}
}

func TestResultsPercentageField(t *testing.T) {
	h := newTestRouter(fixtureRepo())

	rows := decode[[]map[string]any](t, doGet(t, h, "/results/AR2024/01"))
	if len(rows) != 1 || rows[0]["percentage"] != 45.5 {
		t.Fatalf("expected stored percentage got %v", rows)
	}

	rows = decode[[]map[string]any](t, doGet(t, h, "/results/AR2024/0101"))
	if v, ok := rows[0]["percentage"]; !ok || v != nil {
		t.Fatalf("expected null percentage got %v", rows[0])
	}
}

func TestSummaryHandler(t *testing.T) {
	h := newTestRouter(fixtureRepo())

	rec := doGet(t, h, "/results/AR2024/0101/summary")
	want := `{"election_id":"AR2024","dico_code":"0101","total_votes":500,"results":[` +
		`{"party_code":"PPD/PSD","votes":300,"percentage":60.00},` +
		`{"party_code":"PS","votes":200,"percentage":40.00},` +
		`{"party_code":"BE","votes":0,"percentage":0.00}]}` + "\n"
	if rec.Body.String() != want {
		t.Fatalf("unexpected summary\nwant %s\ngot  %s", want, rec.Body.String())
	}

	zero := decode[Summary](t, doGet(t, h, "/results/AR2024/010101/summary"))
	if zero.TotalVotes != 0 || !zero.Results[0].Percentage.IsZero() {
		t.Fatalf("expected zero percentage got %+v", zero)
	}
}

func TestStatsHandler(t *testing.T) {
	h := newTestRouter(fixtureRepo())

	got := decode[Stats](t, doGet(t, h, "/stats/AR2024"))
	want := Stats{ElectionID: "AR2024", Name: "Legislativas 2024", TotalVotes: 550, TotalResults: 5, UniqueParties: 3, UniqueLocations: 3}
	if got != want {
		t.Fatalf("expected %+v got %+v", want, got)
	}

	empty := decode[Stats](t, doGet(t, h, "/stats/PR2021"))
	if empty.TotalResults != 0 || empty.Name != "Presidenciais 2021" {
		t.Fatalf("expected empty stats for election without results got %+v", empty)
	}
}

func TestStoreErrorIsInternal(t *testing.T) {
	h := newTestRouter(&stubRepo{err: errors.New("connection reset")})

	for _, path := range []string{"/elections", "/elections/AR2024", "/dico", "/results/AR2024", "/results/AR2024/01/summary", "/stats/AR2024"} {
		rec := doGet(t, h, path)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("%s: expected 500 got %d", path, rec.Code)
		}
		body := decode[map[string]string](t, rec)
		if body["error"] != "internal error" {
			t.Fatalf("%s: cause leaked or missing: %v", path, body)
		}
	}
}
