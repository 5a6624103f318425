package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var moderationDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "blog_moderation_decisions_total",
	Help: "Number of entry writes checked by the content moderator",
}, []string{"result", "wordlist"})

var httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "blog_http_requests_total",
	Help: "Number of HTTP requests served",
}, []string{"method", "route", "status"})

var httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "blog_http_request_duration_sec",
	Help:    "Duration of HTTP request handling",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route"})
