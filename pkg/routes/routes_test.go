package routes_test

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/JaimeStill/merit/pkg/routes"
)

func named(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(name + ":" + r.PathValue("id")))
	}
}

func testGroup() routes.Group {
	return routes.Group{
		Prefix: "/scores",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: named("list")},
			{Method: "GET", Pattern: "/{id}", Handler: named("find")},
		},
		Children: []routes.Group{
			{
				Prefix: "/{id}/goals",
				Routes: []routes.Route{
					{Method: "PATCH", Pattern: "", Handler: named("goals")},
				},
			},
		},
	}
}

func TestPatterns(t *testing.T) {
	want := []string{
		"GET /scores",
		"GET /scores/{id}",
		"PATCH /scores/{id}/goals",
	}
	if got := testGroup().Patterns(); !slices.Equal(got, want) {
		t.Errorf("Patterns() = %v, want %v", got, want)
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()
	if n := routes.Register(mux, testGroup()); n != 3 {
		t.Errorf("Register() = %d, want 3", n)
	}

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{"GET", "/scores", "list:"},
		{"GET", "/scores/7", "find:7"},
		{"PATCH", "/scores/7/goals", "goals:7"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("body = %s, want %s", got, tt.want)
			}
		})
	}
}
