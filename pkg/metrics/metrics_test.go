package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then the defaults are applied", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "hackathon")
				So(manager.subsystem, ShouldEqual, "core")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.votesCast.Inc()

			Convey("Then metric names carry the namespace and labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_votes_cast_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When options carry empty values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithCustomLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "hackathon")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
				So(manager.customLabels, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording domain operations", func() {
			before := testutil.ToFloat64(globalManager.operations.WithLabelValues("cast_vote", "ok"))
			RecordOperation("cast_vote", "ok", 1.5)
			RecordVoteCast()

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.operations.WithLabelValues("cast_vote", "ok")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.votesCast), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording lifecycle events", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordParticipantJoined()
					RecordParticipantLeft()
					RecordDocumentSubmitted()
					RecordInvitation("sent")
					RecordInvitation("accepted")
					RecordEvaluationWritten()
					RecordRankingFinalized()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording repository metrics", func() {
			UpdateRepositoryRecords("teams", 3)
			RecordRepositoryTx("write", 0.4, true)

			Convey("Then the gauge holds the last value", func() {
				So(testutil.ToFloat64(globalManager.repositoryRecords.WithLabelValues("teams")), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.repositoryTxErrors.WithLabelValues("write")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording HTTP, error and system metrics", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordHTTPRequest("/hackathons", "POST", "201")
					RecordHTTPRequestDuration("/hackathons", "POST", "201", 0.01)
					RecordErrorByComponent("repository", "unavailable")
					RecordErrorByKind("CONFLICT")
					UpdateSystemMemoryUsage(1024)
					UpdateSystemGoroutineCount(8)
					RecordSystemGCPauseTime(0.2)
				}, ShouldNotPanic)
			})
		})

		Convey("When gathering the custom registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then it exposes hackathon metrics", func() {
				So(err, ShouldBeNil)
				So(families, ShouldNotBeEmpty)
			})
		})
	})
}
