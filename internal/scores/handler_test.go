package scores_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/merit/internal/scores"
	"github.com/JaimeStill/merit/internal/scores/scorestest"
	"github.com/JaimeStill/merit/pkg/events"
	"github.com/JaimeStill/merit/pkg/pagination"
	"github.com/JaimeStill/merit/pkg/routes"
)

type recordingPublisher struct {
	events.Noop
	published []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evts ...events.Event) error {
	p.published = append(p.published, evts...)
	return nil
}

func setup(t *testing.T) (*http.ServeMux, *scorestest.Store, *recordingPublisher) {
	t.Helper()

	store := scorestest.New()
	pub := &recordingPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sys := scores.New(store, pub, logger, pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})

	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())
	return mux, store, pub
}

func seed(t *testing.T, store *scorestest.Store, status scores.Status) *scores.Record {
	t.Helper()
	r, err := store.Upsert(context.Background(), testRecord(status))
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	return r
}

func TestHandlerFind(t *testing.T) {
	mux, store, _ := setup(t)
	rec := seed(t, store, scores.StatusActive)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"found", "/scores/" + rec.ID.String(), http.StatusOK},
		{"missing", "/scores/" + uuid.NewString(), http.StatusNotFound},
		{"bad id", "/scores/not-a-uuid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.want {
				t.Errorf("GET %s = %d, want %d", tt.path, w.Code, tt.want)
			}
		})
	}
}

func TestHandlerHistoryAndList(t *testing.T) {
	mux, store, _ := setup(t)
	rec := seed(t, store, scores.StatusActive)
	seed(t, store, scores.StatusActive)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scores/teacher/"+rec.TeacherID.String(), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("history status = %d", w.Code)
	}

	var page pagination.PageResult[scores.Record]
	if err := json.NewDecoder(w.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 1 || page.Data[0].ID != rec.ID {
		t.Errorf("history = %+v, want only %s", page, rec.ID)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scores?page_size=1", nil))
	if err := json.NewDecoder(w.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 2 || len(page.Data) != 1 {
		t.Errorf("list total %d len %d, want 2 and 1", page.Total, len(page.Data))
	}
}

func TestHandlerCohort(t *testing.T) {
	mux, store, _ := setup(t)
	rec := seed(t, store, scores.StatusActive)

	w := httptest.NewRecorder()
	path := "/scores/cohort?period=monthly&start=" + rec.Period.Start.Format("2006-01-02T15:04:05Z07:00")
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("cohort status = %d: %s", w.Code, w.Body.String())
	}

	var cohort []scores.Record
	if err := json.NewDecoder(w.Body).Decode(&cohort); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cohort) != 1 {
		t.Errorf("cohort len = %d, want 1", len(cohort))
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scores/cohort?period=weekly", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad period status = %d, want 400", w.Code)
	}
}

func TestHandlerReview(t *testing.T) {
	mux, store, pub := setup(t)
	rec := seed(t, store, scores.StatusActive)

	body := `{"actor":"dean","status":"under_review","notes":"check engagement data"}`
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scores/"+rec.ID.String()+"/review", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("review status = %d: %s", w.Code, w.Body.String())
	}

	var got scores.Record
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != scores.StatusUnderReview {
		t.Errorf("Status = %s, want under_review", got.Status)
	}
	if len(pub.published) != 1 || pub.published[0].Type != scores.EventReviewed {
		t.Errorf("published = %+v, want one %s event", pub.published, scores.EventReviewed)
	}

	final := seed(t, store, scores.StatusFinal)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scores/"+final.ID.String()+"/review",
		strings.NewReader(`{"actor":"dean","status":"active"}`)))
	if w.Code != http.StatusConflict {
		t.Errorf("reopen final status = %d, want 409", w.Code)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scores/"+rec.ID.String()+"/review", strings.NewReader("{")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", w.Code)
	}
}

func TestHandlerUpdateGoals(t *testing.T) {
	mux, store, pub := setup(t)
	rec := seed(t, store, scores.StatusActive)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/scores/"+rec.ID.String()+"/goals",
		strings.NewReader(`{"actor":"teacher","target_score":70}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("goals status = %d: %s", w.Code, w.Body.String())
	}

	var got scores.Record
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Goals.TargetScore != 70 || !got.Goals.TargetAchieved {
		t.Errorf("Goals = %+v, want target 70 achieved", got.Goals)
	}
	if len(pub.published) != 1 || pub.published[0].Type != scores.EventGoalsUpdated {
		t.Errorf("published = %+v", pub.published)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/scores/"+rec.ID.String()+"/goals",
		strings.NewReader(`{"actor":"teacher","target_score":140}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("out of range status = %d, want 400", w.Code)
	}
}
