package main

import (
	"expvar"
	"net/http"
)

var requestCount = expvar.NewInt("requests")

func countRequests(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		next(w, r)
	}
}
