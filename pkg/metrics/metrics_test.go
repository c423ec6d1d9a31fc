package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("sub"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.RecordTrackFetched()

			Convey("Then collectors carry the namespace and constant labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, f := range families {
					if f.GetName() == "test_sub_tracks_fetched_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(registry))

		Convey("When recording viewer requests", func() {
			m.RecordHTTPRequest("table", "GET", "200", 3)
			m.RecordHTTPRequest("table", "GET", "200", 4)

			Convey("Then the request counter advances", func() {
				So(value(m.httpRequests.WithLabelValues("table", "GET", "200")), ShouldEqual, 2)
			})
		})

		Convey("When recording upstream calls and refreshes", func() {
			m.RecordUpstreamRequest("leaderboard", "200", 12)
			m.RecordTokenRefresh()

			Convey("Then both counters advance", func() {
				So(value(m.upstreamRequests.WithLabelValues("leaderboard", "200")), ShouldEqual, 1)
				So(value(m.tokenRefreshes), ShouldEqual, 1)
			})
		})

		Convey("When recording a fetch run", func() {
			m.RecordFetchRun("success", 1500)
			m.UpdateExportedRows(25)

			Convey("Then the run and export gauges are set", func() {
				So(value(m.fetchRuns.WithLabelValues("success")), ShouldEqual, 1)
				So(value(m.exportedRows), ShouldEqual, 25)
			})
		})

		Convey("When updating the table shape and filtering", func() {
			m.UpdateTableShape(25, map[string]int{"numeric": 8, "text": 1})
			m.RecordFilter(0.3, 7)

			Convey("Then gauges reflect the latest values", func() {
				So(value(m.tableRows), ShouldEqual, 25)
				So(value(m.tableColumns.WithLabelValues("numeric")), ShouldEqual, 8)
				So(value(m.filteredRows), ShouldEqual, 7)
			})
		})

		Convey("When recording errors", func() {
			m.RecordErrorByComponent("nadeo", "status")
			m.RecordErrorByEndpoint("tracks", "GET", "client_error")

			Convey("Then error counters advance", func() {
				So(value(m.errorsByComponent.WithLabelValues("nadeo", "status")), ShouldEqual, 1)
				So(value(m.errorsByEndpoint.WithLabelValues("tracks", "GET", "client_error")), ShouldEqual, 1)
			})
		})
	})
}

func TestMetricsDisabled(t *testing.T) {
	Convey("Given a disabled manager", t, func() {
		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))

		Convey("When recording", func() {
			m.RecordTrackFetched()
			m.UpdateExportedRows(3)

			Convey("Then nothing changes", func() {
				So(value(m.tracksFetched), ShouldEqual, 0)
				So(value(m.exportedRows), ShouldEqual, 0)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then package helpers do not panic", func() {
			So(func() {
				RecordHTTPRequest("table", "GET", "200", 1)
				RecordUpstreamRequest("catalog", "200", 1)
				RecordTokenRefresh()
				RecordFetchRun("failure", 10)
				RecordTrackFetched()
				UpdateExportedRows(1)
				UpdateTableShape(1, map[string]int{"text": 1})
				RecordFilter(0.1, 1)
				RecordErrorByComponent("table", "parse")
				RecordErrorByEndpoint("tracks", "GET", "server_error")
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}

func TestInit(t *testing.T) {
	Convey("Given the global manager rebuilt with options", t, func() {
		Init(
			WithNamespace("tm"),
			WithSubsystem("viewer"),
			WithHistogramBuckets([]float64{1, 10}),
			WithCustomLabels(map[string]string{"process": "viewer"}),
		)
		defer Init()

		RecordTrackFetched()
		RecordHTTPRequest("tracks", "GET", "200", 3)

		Convey("Then the fresh registry carries the new names, labels and buckets", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			byName := map[string]*dto.MetricFamily{}
			for _, f := range families {
				byName[f.GetName()] = f
			}
			So(byName, ShouldContainKey, "tm_viewer_tracks_fetched_total")
			So(byName, ShouldNotContainKey, "atdiff_board_tracks_fetched_total")
			counter := byName["tm_viewer_tracks_fetched_total"].GetMetric()[0]
			So(counter.GetLabel()[0].GetValue(), ShouldEqual, "viewer")
			So(counter.GetCounter().GetValue(), ShouldEqual, 1)
			hist := byName["tm_viewer_http_request_duration_milliseconds"].GetMetric()[0].GetHistogram()
			So(len(hist.GetBucket()), ShouldEqual, 2)
		})

		Convey("Then runtime collectors can be added to the fresh registry", func() {
			So(RegisterRuntimeCollectors, ShouldNotPanic)
		})
	})

	Convey("Given a disabled global manager", t, func() {
		Init(WithMetricsEnabled(false))
		defer Init()

		RecordTrackFetched()

		Convey("Then nothing is exported", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			for _, f := range families {
				if f.GetName() == "atdiff_board_tracks_fetched_total" {
					So(f.GetMetric()[0].GetCounter().GetValue(), ShouldEqual, 0)
				}
			}
		})
	})
}

// value reads the current value of a counter or gauge.
func value(m prometheus.Metric) float64 {
	var pb dto.Metric
	if err := m.Write(&pb); err != nil {
		panic(err)
	}
	if pb.Counter != nil {
		return pb.Counter.GetValue()
	}
	return pb.Gauge.GetValue()
}
