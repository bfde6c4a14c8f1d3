package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/okian/hackathon/internal/adapters/http/api"
	service "github.com/okian/hackathon/internal/app"
	"github.com/okian/hackathon/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var day0 = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time { return day0.Add(time.Duration(n) * 24 * time.Hour) }

type harness struct {
	t   *testing.T
	mux *http.ServeMux
	now time.Time
}

func newHarness(t *testing.T, core api.Core) *harness {
	t.Helper()
	tokens, err := api.NewTokens("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	h := &harness{t: t, mux: http.NewServeMux(), now: day0}
	srv := api.NewServer(core, tokens, api.WithClock(func() time.Time { return h.now }), api.WithLogger(logger.Nop()))
	srv.Register(context.Background(), h.mux)
	return h
}

func startedService(t *testing.T) *service.Service {
	t.Helper()
	svc := service.New(service.WithLogger(logger.Nop()), service.WithPasswordCost(bcrypt.MinCost))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.mux.ServeHTTP(w, req)
	return w
}

// signup registers name and returns a bearer token for it.
func (h *harness) signup(name string) string {
	h.t.Helper()
	creds := map[string]string{"name": name, "password": "long enough"}
	if w := h.do(http.MethodPost, "/v1/users", "", creds); w.Code != http.StatusCreated {
		h.t.Fatalf("register %s: %d %s", name, w.Code, w.Body.String())
	}
	w := h.do(http.MethodPost, "/v1/tokens", "", creds)
	if w.Code != http.StatusCreated {
		h.t.Fatalf("token %s: %d %s", name, w.Code, w.Body.String())
	}
	var tok struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &tok)
	return tok.Token
}

type problem struct {
	Code     string            `json:"code"`
	Kind     string            `json:"kind"`
	Metadata map[string]string `json:"metadata"`
	Missing  []struct {
		Judge string `json:"judge"`
		Team  string `json:"team"`
	} `json:"missing"`
}

func decodeProblem(w *httptest.ResponseRecorder) problem {
	var p problem
	_ = json.Unmarshal(w.Body.Bytes(), &p)
	return p
}

func TestServer_Operational(t *testing.T) {
	Convey("Given a registered server", t, func() {
		h := newHarness(t, startedService(t))

		Convey("Then /healthz reports ok", func() {
			w := h.do(http.MethodGet, "/healthz", "", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"ok"`)
		})

		Convey("Then /metrics exposes the custom registry", func() {
			h.do(http.MethodGet, "/healthz", "", nil)
			w := h.do(http.MethodGet, "/metrics", "", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "hackathon_core_http_requests_total")
		})

		Convey("Then protected routes need a valid bearer token", func() {
			w := h.do(http.MethodPost, "/v1/hackathons", "", map[string]any{"title": "H1"})
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
			w = h.do(http.MethodPost, "/v1/hackathons", "not-a-jwt", map[string]any{"title": "H1"})
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("Then malformed bodies are bad requests", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/users", strings.NewReader(`{"name":`))
			w := httptest.NewRecorder()
			h.mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Then wrong passwords are forbidden", func() {
			h.signup("ada")
			w := h.do(http.MethodPost, "/v1/tokens", "", map[string]string{"name": "ada", "password": "guessing wrong"})
			So(w.Code, ShouldEqual, http.StatusForbidden)
			So(decodeProblem(w).Code, ShouldEqual, "INVALID_CREDENTIALS")
		})
	})

	Convey("Given a server whose service never started", t, func() {
		h := newHarness(t, service.New(service.WithLogger(logger.Nop())))

		Convey("Then storage failures surface as 503 without detail", func() {
			w := h.do(http.MethodGet, "/v1/hackathons", "", nil)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			p := decodeProblem(w)
			So(p.Kind, ShouldEqual, "STORAGE_UNAVAILABLE")
			So(p.Metadata, ShouldBeEmpty)
		})
	})
}

func TestServer_HackathonFlow(t *testing.T) {
	Convey("Given H1 registering [day0, day5) and running [day7, day9]", t, func() {
		h := newHarness(t, startedService(t))
		org, u1, u2, j1 := h.signup("org"), h.signup("u1"), h.signup("u2"), h.signup("j1")

		w := h.do(http.MethodPost, "/v1/hackathons", org, map[string]any{
			"title":            "H1",
			"venue":            "Main Hall",
			"registration_end": day(5),
			"event_start":      day(7),
			"event_end":        day(9),
			"max_participants": 10,
			"max_team_size":    2,
		})
		So(w.Code, ShouldEqual, http.StatusCreated)
		So(w.Body.String(), ShouldContainSubstring, `"stage":"registration_open"`)

		h.now = day(1)
		So(h.do(http.MethodPost, "/v1/hackathons/H1/teams", u1, map[string]string{"name": "Alpha"}).Code, ShouldEqual, http.StatusCreated)
		So(h.do(http.MethodPost, "/v1/hackathons/H1/invitations", org, map[string]string{"invitee": "j1"}).Code, ShouldEqual, http.StatusCreated)
		So(h.do(http.MethodPost, "/v1/hackathons/H1/invitations/accept", j1, nil).Code, ShouldEqual, http.StatusOK)

		Convey("When u2 joins during registration", func() {
			w := h.do(http.MethodPost, "/v1/hackathons/H1/teams/Alpha/members", u2, nil)
			So(w.Code, ShouldEqual, http.StatusCreated)

			Convey("Then the roster lists both members", func() {
				w := h.do(http.MethodGet, "/v1/hackathons/H1/teams/Alpha/members", "", nil)
				So(w.Code, ShouldEqual, http.StatusOK)
				var members []struct {
					User string `json:"user"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &members), ShouldBeNil)
				So(members, ShouldHaveLength, 2)
				So(members[1].User, ShouldEqual, "u2")
			})
		})

		Convey("When u2 tries to join after registration closed", func() {
			h.now = day(6)
			w := h.do(http.MethodPost, "/v1/hackathons/H1/teams/Alpha/members", u2, nil)

			Convey("Then it is a window error", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(decodeProblem(w).Code, ShouldEqual, "REGISTRATION_CLOSED")
			})
		})

		Convey("When a second team takes a name already used", func() {
			w := h.do(http.MethodPost, "/v1/hackathons/H1/teams", u2, map[string]string{"name": "Alpha"})
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(decodeProblem(w).Kind, ShouldEqual, "CONFLICT")
		})

		Convey("When u2 founds Beta and only Alpha is voted on", func() {
			So(h.do(http.MethodPost, "/v1/hackathons/H1/teams", u2, map[string]string{"name": "Beta"}).Code, ShouldEqual, http.StatusCreated)
			h.now = day(8)
			So(h.do(http.MethodPost, "/v1/hackathons/H1/teams/Alpha/votes", j1, map[string]int{"score": 8}).Code, ShouldEqual, http.StatusCreated)
			h.now = day(10)
			w := h.do(http.MethodPost, "/v1/hackathons/H1/ranking", org, nil)

			Convey("Then ranking is refused and names the missing pair", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
				p := decodeProblem(w)
				So(p.Kind, ShouldEqual, "INCOMPLETE_JUDGING")
				So(p.Missing, ShouldHaveLength, 1)
				So(p.Missing[0].Judge, ShouldEqual, "j1")
				So(p.Missing[0].Team, ShouldEqual, "Beta")
			})

			Convey("Then voting Beta completes the ranking", func() {
				So(h.do(http.MethodPost, "/v1/hackathons/H1/teams/Beta/votes", j1, map[string]int{"score": 9}).Code, ShouldEqual, http.StatusCreated)
				w := h.do(http.MethodPost, "/v1/hackathons/H1/ranking", org, nil)
				So(w.Code, ShouldEqual, http.StatusOK)

				w = h.do(http.MethodGet, "/v1/hackathons/H1/ranking", "", nil)
				So(w.Code, ShouldEqual, http.StatusOK)
				var entries []struct {
					Rank      int     `json:"rank"`
					Team      string  `json:"team"`
					MeanScore float64 `json:"mean_score"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].Team, ShouldEqual, "Beta")
				So(entries[1].MeanScore, ShouldEqual, 8.0)
			})
		})

		Convey("When the judge votes out of range", func() {
			h.now = day(8)
			w := h.do(http.MethodPost, "/v1/hackathons/H1/teams/Alpha/votes", j1, map[string]int{"score": 11})

			Convey("Then it is a validation error and no vote exists", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeProblem(w).Code, ShouldEqual, "SCORE_OUT_OF_RANGE")
				w = h.do(http.MethodGet, "/v1/hackathons/H1/votes", "", nil)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
			})
		})

		Convey("When a member submits documents", func() {
			h.now = day(7)
			w := h.do(http.MethodPost, "/v1/hackathons/H1/teams/Alpha/documents", u1, map[string]string{"title": "Pitch Deck", "body": "slides"})
			So(w.Code, ShouldEqual, http.StatusCreated)

			Convey("Then it can be found by title fragment and evaluated", func() {
				w := h.do(http.MethodGet, "/v1/hackathons/H1/teams/Alpha/documents?title=deck", "", nil)
				So(w.Code, ShouldEqual, http.StatusOK)
				var doc struct {
					ID string `json:"id"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &doc), ShouldBeNil)

				w = h.do(http.MethodPost, "/v1/documents/"+doc.ID+"/evaluations", j1, map[string]string{"text": "clear"})
				So(w.Code, ShouldEqual, http.StatusCreated)
				w = h.do(http.MethodGet, "/v1/documents/"+doc.ID+"/evaluations", "", nil)
				So(w.Body.String(), ShouldContainSubstring, `"clear"`)
			})

			Convey("Then an unmatched fragment is not found", func() {
				w := h.do(http.MethodGet, "/v1/hackathons/H1/teams/Alpha/documents?title=video", "", nil)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("Then capabilities reflect each caller's roles", func() {
			w := h.do(http.MethodGet, "/v1/me/capabilities", j1, nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"role":"judge"`)
		})

		Convey("Then unknown hackathons are not found", func() {
			w := h.do(http.MethodGet, "/v1/hackathons/Nope", "", nil)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
