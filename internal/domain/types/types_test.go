package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/profrate/internal/domain/model"
	types "github.com/okian/profrate/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr(v float64) *float64 { return &v }

func TestNewOverview(t *testing.T) {
	Convey("Given a professor snapshot", t, func() {
		p := model.Professor{
			RMPID:      42,
			FirstName:  "Jane",
			LastName:   "Doe",
			FullName:   "Jane Doe",
			Department: "Mathematics",
		}

		Convey("When the score has only a yearly value", func() {
			p.Score = &model.Score{QualityYear: ptr(4)}
			o := types.NewOverview(p)

			Convey("Then the overview should carry it and null the other", func() {
				So(o.RMPID, ShouldEqual, 42)
				So(*o.QualityYr, ShouldEqual, 4.0)
				So(o.Quality, ShouldBeNil)

				raw, err := json.Marshal(o)
				So(err, ShouldBeNil)
				So(string(raw), ShouldEqual,
					`{"rmp_id":42,"quality":null,"quality_yr":4,"first_name":"Jane","last_name":"Doe","full_name":"Jane Doe","department":"Mathematics"}`)
			})
		})

		Convey("When the professor has not been scored", func() {
			o := types.NewOverview(p)

			Convey("Then both qualities should be nil", func() {
				So(o.Quality, ShouldBeNil)
				So(o.QualityYr, ShouldBeNil)
			})
		})
	})
}

func TestNewComments(t *testing.T) {
	Convey("Given ratings fetched from the review site", t, func() {
		date := time.Date(2019, 5, 12, 19, 38, 4, 0, time.UTC)
		ratings := []model.Rating{
			{Helpful: 5, Clarity: 4, Difficulty: 3, Comment: `He said "read"`, Class: "MATH101", Grade: "A", Attendance: model.AttendanceMandatory, Date: date},
			{Helpful: 1, Clarity: 2, Difficulty: 5, Class: "MATH202"},
		}

		Convey("When converting to comments", func() {
			cs := types.NewComments(ratings)

			Convey("Then derived fields should be computed", func() {
				So(cs, ShouldHaveLength, 2)
				So(cs[0].Quality, ShouldEqual, 4.5)
				So(cs[0].Difficulty, ShouldEqual, 3.0)
				So(*cs[0].AttendanceMandatory, ShouldBeTrue)
				So(cs[1].AttendanceMandatory, ShouldBeNil)
			})

			Convey("And the date should encode as RFC 3339", func() {
				raw, err := json.Marshal(cs[0])
				So(err, ShouldBeNil)
				So(string(raw), ShouldContainSubstring, `"date":"2019-05-12T19:38:04Z"`)
			})
		})

		Convey("When there are no ratings", func() {
			raw, err := json.Marshal(types.NewComments(nil))

			Convey("Then an empty array should be encoded", func() {
				So(err, ShouldBeNil)
				So(string(raw), ShouldEqual, "[]")
			})
		})
	})
}

func TestNewCandidates(t *testing.T) {
	Convey("Given ranked snapshots", t, func() {
		ps := []model.Professor{
			{RMPID: 1, FullName: "A", Average: ptr(3.5)},
			{RMPID: 2, FullName: "B"},
		}

		Convey("When converting to candidates", func() {
			cs := types.NewCandidates(ps)

			Convey("Then order and upstream averages should be kept", func() {
				So(cs, ShouldHaveLength, 2)
				So(cs[0].RMPID, ShouldEqual, 1)
				So(*cs[0].Score, ShouldEqual, 3.5)
				So(cs[1].Score, ShouldBeNil)
			})
		})
	})
}
