package main

import (
	"fmt"
	"net/http"
)

func notify(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "notified")
}
