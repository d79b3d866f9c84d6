package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/profrate/internal/domain/types"
)

func ptr(v float64) *float64 { return &v }

// fakeService answers the routes the probe uses. When drift is set, every
// second overview of Jane Doe reports a different score.
func fakeService(drift bool) (*httptest.Server, *atomic.Int64) {
	var calls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	mux.HandleFunc("GET /r0/professor/{name}/overview", func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		switch r.PathValue("name") {
		case "Jane Doe":
			q := 4.25
			if drift && n%2 == 0 {
				q = 3.0
			}
			writeBody(w, http.StatusOK, types.Overview{RMPID: 42, Quality: ptr(q), FullName: "Jane Doe"})
		case "Broken":
			writeBody(w, http.StatusBadGateway, types.UpstreamError)
		default:
			writeBody(w, http.StatusNotFound, types.UpstreamError)
		}
	})
	mux.HandleFunc("GET /r0/professor/{name}/comments", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("name") == "Jane Doe" {
			writeBody(w, http.StatusOK, []types.Comment{{Class: "MATH101"}, {Class: "MATH202"}})
			return
		}
		writeBody(w, http.StatusOK, []types.Comment{})
	})
	mux.HandleFunc("GET /r0/professor/{name}/course/{course}/comments", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, []types.Comment{{Class: r.PathValue("course")}})
	})
	return httptest.NewServer(mux), &calls
}

func writeBody(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRun(t *testing.T) {
	Convey("Given a service with stable scores", t, func() {
		srv, calls := fakeService(false)
		defer srv.Close()

		cfg := &Config{
			BaseURL: srv.URL,
			Names:   []string{"Jane Doe", " Jane Doe ", "Nobody", "Broken", ""},
			Repeat:  4,
			Workers: 3,
			Timeout: time.Second,
		}

		Convey("When the probe runs", func() {
			var out bytes.Buffer
			results, err := Run(context.Background(), cfg, &out)

			Convey("Then it should succeed and dedupe names", func() {
				So(err, ShouldBeNil)
				So(len(results), ShouldEqual, 3)
				So(calls.Load(), ShouldEqual, 12)
			})

			Convey("And each name should be summarized", func() {
				jane := results[0]
				So(jane.Name, ShouldEqual, "Jane Doe")
				So(jane.Requests, ShouldEqual, 4)
				So(jane.Mismatch, ShouldEqual, 0)
				So(jane.Comments, ShouldEqual, 2)
				So(*jane.Overview.Quality, ShouldEqual, 4.25)

				So(results[1].NotFound, ShouldBeTrue)
				So(results[1].Overview, ShouldBeNil)

				So(results[2].Failures, ShouldEqual, 4)
				So(results[2].LastError, ShouldNotBeNil)
			})

			Convey("And a table should be rendered", func() {
				So(out.String(), ShouldContainSubstring, "Jane Doe")
				So(out.String(), ShouldContainSubstring, "4.250")
				So(out.String(), ShouldContainSubstring, "not found")
			})
		})

		Convey("When a course filter is given", func() {
			cfg.Names = []string{"Jane Doe"}
			cfg.Course = "MATH101"
			results, err := Run(context.Background(), cfg, &bytes.Buffer{})

			Convey("Then the course comments route should be used", func() {
				So(err, ShouldBeNil)
				So(results[0].Comments, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a service whose scores drift", t, func() {
		srv, _ := fakeService(true)
		defer srv.Close()

		cfg := &Config{BaseURL: srv.URL, Names: []string{"Jane Doe"}, Repeat: 6, Workers: 2, Timeout: time.Second}

		Convey("When the probe runs", func() {
			results, err := Run(context.Background(), cfg, &bytes.Buffer{})

			Convey("Then it should report the inconsistency", func() {
				So(errors.Is(err, ErrInconsistent), ShouldBeTrue)
				So(results[0].Mismatch, ShouldBeGreaterThan, 0)
			})
		})
	})

	Convey("Given no usable names", t, func() {
		_, err := Run(context.Background(), &Config{Names: []string{" ", ""}}, &bytes.Buffer{})
		So(errors.Is(err, ErrNoNames), ShouldBeTrue)
	})

	Convey("Given an unhealthy service", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := Run(context.Background(), &Config{BaseURL: srv.URL, Names: []string{"Jane Doe"}, Timeout: time.Second}, &bytes.Buffer{})
		So(errors.Is(err, ErrUnhealthy), ShouldBeTrue)
	})
}

func TestSameOverview(t *testing.T) {
	Convey("Given two overviews", t, func() {
		a := types.Overview{RMPID: 1, Quality: ptr(4), QualityYr: nil}
		b := a

		So(sameOverview(a, b), ShouldBeTrue)

		b.QualityYr = ptr(3)
		So(sameOverview(a, b), ShouldBeFalse)

		b = a
		b.Quality = ptr(4)
		So(sameOverview(a, b), ShouldBeTrue)

		b.RMPID = 2
		So(sameOverview(a, b), ShouldBeFalse)
	})
}

func TestPaths(t *testing.T) {
	Convey("Given names that need escaping", t, func() {
		So(overviewPath("Jane Doe"), ShouldEqual, "/r0/professor/Jane%20Doe/overview")
		So(commentsPath("Jane Doe", ""), ShouldEqual, "/r0/professor/Jane%20Doe/comments")
		So(commentsPath("Jane Doe", "CS 101"), ShouldEqual, "/r0/professor/Jane%20Doe/course/CS%20101/comments")
	})
}

func TestResultLatency(t *testing.T) {
	Convey("Given a result with recorded requests", t, func() {
		var r Result
		So(r.AvgLatency(), ShouldEqual, time.Duration(0))

		record(&r, types.Overview{RMPID: 1}, http.StatusOK, nil, 10*time.Millisecond)
		record(&r, types.Overview{RMPID: 1}, http.StatusOK, nil, 30*time.Millisecond)
		record(&r, types.Overview{RMPID: 2}, http.StatusOK, nil, 20*time.Millisecond)

		So(r.Requests, ShouldEqual, 3)
		So(r.Mismatch, ShouldEqual, 1)
		So(r.AvgLatency(), ShouldEqual, 20*time.Millisecond)
	})
}
