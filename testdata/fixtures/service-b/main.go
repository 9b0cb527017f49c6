package main

import (
	"fmt"
	"net/http"
	"os"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "9090"
	}
	http.HandleFunc("/users", listUsers)
	http.HandleFunc("/notify", notify)
	fmt.Println("listening on :" + port)
	http.ListenAndServe(":"+port, nil)
}
