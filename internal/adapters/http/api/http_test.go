package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	service "github.com/okian/profrate/internal/app"
	"github.com/okian/profrate/internal/domain/model"
)

type mockDeps struct {
	mu sync.Mutex

	token    string
	tokenErr error

	professors map[string]model.Professor
	searchErr  error
	ratings    []model.Rating

	lastCourse string
}

func (m *mockDeps) GraphQLToken(context.Context) (string, error) {
	return m.token, m.tokenErr
}

func (m *mockDeps) ProfessorOverview(_ context.Context, name string) (model.Professor, error) {
	if m.searchErr != nil {
		return model.Professor{}, m.searchErr
	}
	p, ok := m.professors[name]
	if !ok {
		return model.Professor{}, service.ErrNotFound
	}
	return p, nil
}

func (m *mockDeps) ProfessorComments(_ context.Context, name, course string) []model.Rating {
	m.mu.Lock()
	m.lastCourse = course
	m.mu.Unlock()
	if _, ok := m.professors[name]; !ok {
		return []model.Rating{}
	}
	return m.ratings
}

func (m *mockDeps) SearchProfessors(_ context.Context, name string) ([]model.Professor, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if p, ok := m.professors[name]; ok {
		return []model.Professor{p}, nil
	}
	return []model.Professor{}, nil
}

type mockStats struct{}

func (mockStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"records": 2}
}

func ptr(v float64) *float64 { return &v }

func newTestMux(deps Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	NewServer(deps, mockStats{}, nil).Register(context.Background(), mux)
	return mux
}

func do(h http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServerRoutes(t *testing.T) {
	convey.Convey("Given a server with a mock controller", t, func() {
		deps := &mockDeps{
			token: "dGVzdDp0ZXN0",
			professors: map[string]model.Professor{
				"Jane Doe": {
					RMPID:      42,
					FirstName:  "Jane",
					LastName:   "Doe",
					FullName:   "Jane Doe",
					Department: "Mathematics",
					Average:    ptr(4.5),
					Score:      &model.Score{Quality: ptr(4.25), QualityYear: nil},
				},
			},
			ratings: []model.Rating{{
				Helpful:    5,
				Clarity:    4,
				Difficulty: 3,
				Comment:    "Great",
				Class:      "MATH101",
				Grade:      "A",
				Attendance: model.AttendanceMandatory,
				Date:       time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			}},
		}
		mux := newTestMux(deps)

		convey.Convey("When requesting the version", func() {
			w := do(mux, "/version")

			convey.Convey("Then it should report the build version", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldEqual, fmt.Sprintf("{\"version\":%q}\n", Version))
			})
		})

		convey.Convey("When requesting the graphql token", func() {
			w := do(mux, "/internal/rmp_graphql_token")

			convey.Convey("Then the token should be returned", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldEqual, "{\"token\":\"dGVzdDp0ZXN0\"}\n")
			})
		})

		convey.Convey("When the token cannot be obtained", func() {
			deps.tokenErr = service.ErrUpstream
			w := do(mux, "/internal/rmp_graphql_token")

			convey.Convey("Then a bad gateway with the RMP body should be returned", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusBadGateway)
				convey.So(w.Body.String(), convey.ShouldEqual, "{\"error\":\"RMP\"}\n")
			})
		})

		convey.Convey("When requesting an overview with an escaped name", func() {
			w := do(mux, "/r0/professor/Jane%20Doe/overview")

			convey.Convey("Then the overview should be returned with null for unpublished windows", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				var body map[string]any
				convey.So(json.Unmarshal(w.Body.Bytes(), &body), convey.ShouldBeNil)
				convey.So(body["rmp_id"], convey.ShouldEqual, 42.0)
				convey.So(body["quality"], convey.ShouldEqual, 4.25)
				convey.So(body["quality_yr"], convey.ShouldBeNil)
				convey.So(body, convey.ShouldContainKey, "quality_yr")
				convey.So(body["department"], convey.ShouldEqual, "Mathematics")
			})
		})

		convey.Convey("When requesting an overview for an unknown professor", func() {
			w := do(mux, "/r0/professor/Nobody/overview")

			convey.Convey("Then a not found with the RMP body should be returned", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)
				convey.So(w.Body.String(), convey.ShouldEqual, "{\"error\":\"RMP\"}\n")
			})
		})

		convey.Convey("When the upstream fails during an overview", func() {
			deps.searchErr = fmt.Errorf("search: %w", service.ErrUpstream)
			w := do(mux, "/r0/professor/Jane%20Doe/overview")

			convey.Convey("Then a bad gateway should be returned", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusBadGateway)
				convey.So(w.Body.String(), convey.ShouldEqual, "{\"error\":\"RMP\"}\n")
			})
		})

		convey.Convey("When searching", func() {
			w := do(mux, "/r0/professor/search/Jane%20Doe")

			convey.Convey("Then candidates should be listed with their average score", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				var body []map[string]any
				convey.So(json.Unmarshal(w.Body.Bytes(), &body), convey.ShouldBeNil)
				convey.So(len(body), convey.ShouldEqual, 1)
				convey.So(body[0]["score"], convey.ShouldEqual, 4.5)
				convey.So(body[0]["full_name"], convey.ShouldEqual, "Jane Doe")
			})
		})

		convey.Convey("When searching with no matches", func() {
			w := do(mux, "/r0/professor/search/Nobody")

			convey.Convey("Then an empty list should be returned", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldEqual, "[]\n")
			})
		})

		convey.Convey("When requesting comments", func() {
			w := do(mux, "/r0/professor/Jane%20Doe/comments")

			convey.Convey("Then the comments should be returned unfiltered", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				var body []map[string]any
				convey.So(json.Unmarshal(w.Body.Bytes(), &body), convey.ShouldBeNil)
				convey.So(len(body), convey.ShouldEqual, 1)
				convey.So(body[0]["quality"], convey.ShouldEqual, 4.5)
				convey.So(body[0]["attendance_mandatory"], convey.ShouldEqual, true)
				convey.So(body[0]["date"], convey.ShouldEqual, "2024-01-02T03:04:05Z")
				convey.So(deps.lastCourse, convey.ShouldEqual, "")
			})
		})

		convey.Convey("When requesting course comments", func() {
			w := do(mux, "/r0/professor/Jane%20Doe/course/MATH101/comments")

			convey.Convey("Then the course should be passed through", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(deps.lastCourse, convey.ShouldEqual, "MATH101")
			})
		})

		convey.Convey("When requesting comments for an unknown professor", func() {
			w := do(mux, "/r0/professor/Nobody/comments")

			convey.Convey("Then an empty list with 200 should be returned", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldEqual, "[]\n")
			})
		})

		convey.Convey("When requesting an unknown professor action", func() {
			w := do(mux, "/r0/professor/Jane%20Doe/photos")

			convey.Convey("Then it should return not found", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)
			})
		})

		convey.Convey("When requesting stats", func() {
			w := do(mux, "/stats")

			convey.Convey("Then the provider's stats should be returned", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "\"records\":2")
			})
		})

		convey.Convey("When requesting health", func() {
			w := do(mux, "/healthz")

			convey.Convey("Then metrics exposition should be served", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When posting to a read-only route", func() {
			req := httptest.NewRequest(http.MethodPost, "/version", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.Convey("Then it should be rejected", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestRegisterWithNilMux(t *testing.T) {
	convey.Convey("Given a server", t, func() {
		s := NewServer(&mockDeps{}, nil, nil)

		convey.Convey("Then registering on a nil mux should panic", func() {
			convey.So(func() { s.Register(context.Background(), nil) }, convey.ShouldPanic)
		})
	})
}

func TestStatsWithoutProvider(t *testing.T) {
	convey.Convey("Given a stats handler without a provider", t, func() {
		w := httptest.NewRecorder()
		NewStatsHandler(nil).HandleStats(w, httptest.NewRequest(http.MethodGet, "/stats", http.NoBody))

		convey.Convey("Then an empty object should be returned", func() {
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldEqual, "{}\n")
		})
	})
}

func TestMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get(RequestIDHeader)))
	})

	convey.Convey("Given the request id middleware", t, func() {
		h := RequestIDMiddleware(ok)

		convey.Convey("When no id is supplied", func() {
			w := do(h, "/version")

			convey.Convey("Then a fresh id should be echoed", func() {
				convey.So(w.Header().Get(RequestIDHeader), convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When the caller supplies an id", func() {
			req := httptest.NewRequest(http.MethodGet, "/version", http.NoBody)
			req.Header.Set(RequestIDHeader, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			convey.Convey("Then it should be reused", func() {
				convey.So(w.Header().Get(RequestIDHeader), convey.ShouldEqual, "abc-123")
			})
		})
	})

	convey.Convey("Given the rate limit middleware with a burst of one", t, func() {
		h := RateLimitMiddleware(ok, NewLimiter(0.001, 1))

		convey.Convey("When two requests arrive back to back", func() {
			first := do(h, "/version")
			second := do(h, "/version")

			convey.Convey("Then the second should be rejected", func() {
				convey.So(first.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(second.Code, convey.ShouldEqual, http.StatusTooManyRequests)
			})
		})
	})

	convey.Convey("Given a disabled limiter", t, func() {
		convey.So(NewLimiter(0, 10), convey.ShouldBeNil)
		h := RateLimitMiddleware(ok, nil)

		convey.Convey("Then requests pass through", func() {
			for i := 0; i < 5; i++ {
				convey.So(do(h, "/version").Code, convey.ShouldEqual, http.StatusOK)
			}
		})
	})

	convey.Convey("Given the error classification helpers", t, func() {
		convey.So(getErrorType(502), convey.ShouldEqual, "server_error")
		convey.So(getErrorType(429), convey.ShouldEqual, "rate_limit")
		convey.So(getErrorType(404), convey.ShouldEqual, "not_found")
		convey.So(getErrorType(400), convey.ShouldEqual, "client_error")
		convey.So(getErrorSeverity(502), convey.ShouldEqual, "high")
		convey.So(getErrorSeverity(404), convey.ShouldEqual, "medium")
	})
}

func TestWriteUpstreamError(t *testing.T) {
	convey.Convey("Given a wrapped not found error", t, func() {
		w := httptest.NewRecorder()
		writeUpstreamError(w, fmt.Errorf("resolve: %w", ErrNotFound))
		convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)
	})

	convey.Convey("Given any other error", t, func() {
		w := httptest.NewRecorder()
		writeUpstreamError(w, errors.New("boom"))
		convey.So(w.Code, convey.ShouldEqual, http.StatusBadGateway)
	})
}
