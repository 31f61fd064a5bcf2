// Copyright (c) OpenMMLab. All rights reserved.

package metrics

import (
	"os"
	"time"

	"dlaunch/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

var (
	// Run counter, labeled by launch mode (spawn/attach) and outcome
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launcher_runs_total",
		Help: "Total number of launcher runs",
	}, []string{"mode", "status"})

	// Run latency histogram
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "launcher_run_duration_seconds",
		Help:    "Duration of launcher runs in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})
)

// ObserveRun records one completed run. It only observes the error, the
// caller still propagates it.
func ObserveRun(mode string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RunsTotal.WithLabelValues(mode, status).Inc()
	RunDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

func PushMetricsToGateway(pushgatewayUrl, jobName string, interval time.Duration) {
	if pushgatewayUrl == "" {
		logger.Logger.Error("Pushgateway URL not set, skipping metrics push")
		return
	}

	pusher := push.New(pushgatewayUrl, jobName).
		Collector(RunsTotal).
		Collector(RunDuration).
		Grouping("instance", getHostname())

	for {
		<-time.After(interval)
		if err := pusher.Push(); err != nil {
			logger.Logger.Error("Error pushing metrics", zap.Error(err))
		}
	}
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
