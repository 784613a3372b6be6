package pagination_test

import (
	"encoding/json"
	"net/url"
	"slices"
	"strings"
	"testing"

	"github.com/JaimeStill/merit/pkg/pagination"
	"github.com/JaimeStill/merit/pkg/query"
)

func TestConfigFinalize(t *testing.T) {
	tests := []struct {
		name        string
		cfg         pagination.Config
		env         map[string]string
		wantDefault int
		wantMax     int
		wantErr     string
	}{
		{
			name:        "defaults",
			wantDefault: 20,
			wantMax:     100,
		},
		{
			name:        "env overrides",
			env:         map[string]string{"TEST_PAGE_SIZE": "50", "TEST_MAX_PAGE": "200"},
			wantDefault: 50,
			wantMax:     200,
		},
		{
			name:        "unparseable env ignored",
			env:         map[string]string{"TEST_PAGE_SIZE": "fifty"},
			wantDefault: 20,
			wantMax:     100,
		},
		{
			name:    "default exceeds max",
			cfg:     pagination.Config{DefaultPageSize: 200, MaxPageSize: 100},
			wantErr: "default_page_size cannot exceed max_page_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			err := tt.cfg.Finalize(&pagination.ConfigEnv{
				DefaultPageSize: "TEST_PAGE_SIZE",
				MaxPageSize:     "TEST_MAX_PAGE",
			})
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("finalize: %v", err)
			}
			if tt.cfg.DefaultPageSize != tt.wantDefault || tt.cfg.MaxPageSize != tt.wantMax {
				t.Errorf("got %d/%d, want %d/%d",
					tt.cfg.DefaultPageSize, tt.cfg.MaxPageSize, tt.wantDefault, tt.wantMax)
			}
		})
	}
}

func TestConfigMerge(t *testing.T) {
	base := pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
	base.Merge(&pagination.Config{DefaultPageSize: 50})

	if base.DefaultPageSize != 50 || base.MaxPageSize != 100 {
		t.Errorf("merged = %+v, want {50 100}", base)
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

	tests := []struct {
		name         string
		values       url.Values
		wantPage     int
		wantPageSize int
		wantOffset   int
		wantSearch   string
		wantSort     []query.SortField
	}{
		{
			name:         "empty gets defaults",
			values:       url.Values{},
			wantPage:     1,
			wantPageSize: 20,
		},
		{
			name: "all params",
			values: url.Values{
				"page":      {"3"},
				"page_size": {"15"},
				"search":    {"science"},
				"sort":      {"-OverallScore,TeacherName"},
			},
			wantPage:     3,
			wantPageSize: 15,
			wantOffset:   30,
			wantSearch:   "science",
			wantSort: []query.SortField{
				{Field: "OverallScore", Descending: true},
				{Field: "TeacherName"},
			},
		},
		{
			name:         "negative page and oversized page clamped",
			values:       url.Values{"page": {"-2"}, "page_size": {"500"}},
			wantPage:     1,
			wantPageSize: 100,
		},
		{
			name:         "garbage numbers get defaults",
			values:       url.Values{"page": {"two"}, "page_size": {"x"}},
			wantPage:     1,
			wantPageSize: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := pagination.PageRequestFromQuery(tt.values, cfg)

			if req.Page != tt.wantPage || req.PageSize != tt.wantPageSize {
				t.Errorf("page = %d/%d, want %d/%d", req.Page, req.PageSize, tt.wantPage, tt.wantPageSize)
			}
			if got := req.Offset(); got != tt.wantOffset {
				t.Errorf("Offset() = %d, want %d", got, tt.wantOffset)
			}
			switch {
			case tt.wantSearch == "" && req.Search != nil:
				t.Errorf("Search = %q, want nil", *req.Search)
			case tt.wantSearch != "" && (req.Search == nil || *req.Search != tt.wantSearch):
				t.Errorf("Search = %v, want %q", req.Search, tt.wantSearch)
			}
			if !slices.Equal(req.Sort, tt.wantSort) {
				t.Errorf("Sort = %v, want %v", req.Sort, tt.wantSort)
			}
		})
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name           string
		data           []string
		total          int
		wantTotalPages int
	}{
		{"exact division", []string{"a"}, 100, 5},
		{"remainder", []string{"a"}, 101, 6},
		{"single page", []string{"a"}, 5, 1},
		{"nil data", nil, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pagination.NewPageResult(tt.data, tt.total, 1, 20)
			if result.TotalPages != tt.wantTotalPages {
				t.Errorf("TotalPages = %d, want %d", result.TotalPages, tt.wantTotalPages)
			}
			if result.Data == nil {
				t.Error("Data should be an empty slice, not nil")
			}

			body, err := json.Marshal(result)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if !strings.Contains(string(body), `"data":[`) {
				t.Errorf("data not encoded as array: %s", body)
			}
		})
	}
}

func TestSortFieldsUnmarshal(t *testing.T) {
	want := pagination.SortFields{
		{Field: "OverallScore", Descending: true},
		{Field: "GeneratedAt"},
	}

	tests := []struct {
		name  string
		input string
	}{
		{"string", `"-OverallScore,GeneratedAt"`},
		{"array", `[{"Field":"OverallScore","Descending":true},{"Field":"GeneratedAt"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got pagination.SortFields
			if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !slices.Equal(got, want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name      string
		req       pagination.PageRequest
		n         int
		wantStart int
		wantEnd   int
	}{
		{"first page", pagination.PageRequest{Page: 1, PageSize: 10}, 25, 0, 10},
		{"partial last page", pagination.PageRequest{Page: 3, PageSize: 10}, 25, 20, 25},
		{"past the end", pagination.PageRequest{Page: 5, PageSize: 10}, 25, 25, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.req.Window(tt.n)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("Window(%d) = [%d,%d), want [%d,%d)", tt.n, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestPageResultHasNext(t *testing.T) {
	if r := pagination.NewPageResult([]int{1}, 45, 2, 20); !r.HasNext {
		t.Error("page 2 of 3 should have a next page")
	}
	if r := pagination.NewPageResult([]int{1}, 45, 3, 20); r.HasNext {
		t.Error("last page should not have a next page")
	}
}
