package scoring_test

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/okian/profrate/internal/domain/model"
	scoring "github.com/okian/profrate/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func ago(seconds int64) time.Time {
	return now.Add(-time.Duration(seconds) * time.Second)
}

func TestWeighted(t *testing.T) {
	Convey("Given the weighted scorer", t, func() {
		Convey("When the rating list is empty", func() {
			sum, weight := scoring.Weighted(nil, scoring.WindowYear, now)

			Convey("Then both sum and weight should be zero", func() {
				So(sum, ShouldEqual, 0)
				So(weight, ShouldEqual, 0)
			})
		})

		Convey("When a rating without thumbs is dated exactly now", func() {
			ratings := []model.Rating{{Helpful: 4, Clarity: 2, Date: now}}
			sum, weight := scoring.Weighted(ratings, scoring.WindowYear, now)

			Convey("Then thumbs, time and quantity weights should all be one", func() {
				So(weight, ShouldEqual, 1.0)
				So(sum, ShouldEqual, 3.0)
			})
		})

		Convey("When a rating is dated exactly at the cutoff", func() {
			ratings := []model.Rating{{Helpful: 5, Clarity: 5, Date: ago(scoring.WindowYear)}}
			sum, weight := scoring.Weighted(ratings, scoring.WindowYear, now)

			Convey("Then it should be kept with zero time weight", func() {
				So(weight, ShouldEqual, 0)
				So(sum, ShouldEqual, 0)
			})
		})

		Convey("When a rating is older than the window", func() {
			ratings := []model.Rating{
				{Helpful: 1, Clarity: 1, Date: ago(scoring.WindowYear + 1)},
				{Helpful: 5, Clarity: 5, Date: now},
			}
			sum, weight := scoring.Weighted(ratings, scoring.WindowYear, now)

			Convey("Then it should be discarded", func() {
				So(weight, ShouldEqual, 1.0)
				So(sum, ShouldEqual, 5.0)
			})
		})

		Convey("When a rating is dated in the future", func() {
			ratings := []model.Rating{{Helpful: 3, Clarity: 3, Date: now.Add(time.Duration(scoring.WindowYear/2) * time.Second)}}
			_, weight := scoring.Weighted(ratings, scoring.WindowYear, now)

			Convey("Then its time weight should exceed one and not be clamped", func() {
				So(weight, ShouldAlmostEqual, 1.5, 1e-9)
			})
		})

		Convey("When a rating has thumbs", func() {
			ratings := []model.Rating{{Helpful: 4, Clarity: 4, Date: now, ThumbsUp: 3, ThumbsDown: 1}}
			sum, weight := scoring.Weighted(ratings, scoring.WindowYear, now)

			Convey("Then the smoothed approval and engagement boost should apply", func() {
				expected := (4.0 / 5.0) * (math.Log(3) + 1)
				So(weight, ShouldAlmostEqual, expected, 1e-12)
				So(sum, ShouldAlmostEqual, 4*expected, 1e-12)
			})
		})

		Convey("When the window is not positive", func() {
			sum, weight := scoring.Weighted([]model.Rating{{Helpful: 5, Clarity: 5, Date: now}}, 0, now)

			Convey("Then nothing should be accumulated", func() {
				So(sum, ShouldEqual, 0)
				So(weight, ShouldEqual, 0)
			})
		})
	})
}

func TestPublish(t *testing.T) {
	Convey("Given a weighted sum", t, func() {
		Convey("When the weight clears the threshold", func() {
			v := scoring.Publish(12, 3, scoring.MinWeightYear)

			Convey("Then the mean should be published", func() {
				So(v, ShouldNotBeNil)
				So(*v, ShouldEqual, 4.0)
			})
		})

		Convey("When the weight equals the threshold", func() {
			v := scoring.Publish(16, 8, scoring.MinWeightAllTime)

			Convey("Then the mean should be published", func() {
				So(v, ShouldNotBeNil)
				So(*v, ShouldEqual, 2.0)
			})
		})

		Convey("When the weight is below the threshold", func() {
			Convey("Then the value should be unknown rather than zero", func() {
				So(scoring.Publish(7, 1.9, scoring.MinWeightYear), ShouldBeNil)
			})
		})

		Convey("When the weight is zero", func() {
			Convey("Then no division should happen", func() {
				So(scoring.Publish(0, 0, 0), ShouldBeNil)
			})
		})
	})
}

func TestCompute(t *testing.T) {
	Convey("Given ten ratings with six inside the last year", t, func() {
		ratings := make([]model.Rating, 0, 10)
		for i := 0; i < 6; i++ {
			ratings = append(ratings, model.Rating{Helpful: 4, Clarity: 4, Date: ago(86_400 * int64(i+1))})
		}
		for i := 0; i < 4; i++ {
			ratings = append(ratings, model.Rating{Helpful: 1, Clarity: 2, Date: ago(3 * scoring.WindowYear)})
		}

		score := scoring.Compute(ratings, now)

		Convey("Then the yearly quality should be published near 4.0", func() {
			So(score.QualityYear, ShouldNotBeNil)
			So(*score.QualityYear, ShouldAlmostEqual, 4.0, 1e-9)
		})

		Convey("And the all-time quality should be withheld below weight 8", func() {
			_, weight := scoring.Weighted(ratings, scoring.WindowAllTime, now)
			So(weight, ShouldBeLessThan, scoring.MinWeightAllTime)
			So(score.Quality, ShouldBeNil)
		})
	})

	Convey("Given many recent ratings", t, func() {
		ratings := make([]model.Rating, 0, 20)
		for i := 0; i < 20; i++ {
			ratings = append(ratings, model.Rating{Helpful: 5, Clarity: 3, Date: ago(3600 * int64(i))})
		}

		score := scoring.Compute(ratings, now)

		Convey("Then both windows should be published", func() {
			So(score.Quality, ShouldNotBeNil)
			So(score.QualityYear, ShouldNotBeNil)
			So(*score.Quality, ShouldAlmostEqual, 4.0, 1e-9)
			So(*score.QualityYear, ShouldAlmostEqual, 4.0, 1e-9)
		})
	})
}

func TestWindowScorer(t *testing.T) {
	Convey("Given a window scorer with a fixed clock", t, func() {
		scorer := scoring.NewWindowScorer(scoring.WithClock(func() time.Time { return now }))
		ratings := []model.Rating{
			{Helpful: 5, Clarity: 5, Date: now},
			{Helpful: 5, Clarity: 5, Date: now},
		}

		Convey("When scoring concurrently", func() {
			results := make([]model.Score, 16)
			var wg sync.WaitGroup
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i] = scorer.Score(ratings)
				}(i)
			}
			wg.Wait()

			Convey("Then every result should be identical", func() {
				for _, r := range results {
					So(r.QualityYear, ShouldNotBeNil)
					So(*r.QualityYear, ShouldEqual, 5.0)
					So(r.Quality, ShouldBeNil)
				}
			})
		})

		Convey("When a nil clock is supplied", func() {
			s := scoring.NewWindowScorer(scoring.WithClock(nil))

			Convey("Then the wall clock should still be used", func() {
				So(func() { s.Score(nil) }, ShouldNotPanic)
			})
		})
	})
}
