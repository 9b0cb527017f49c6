package main

import (
	"encoding/json"
	"net/http"
)

type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func listUsers(w http.ResponseWriter, r *http.Request) {
	users := []User{{ID: 1, Name: "ada"}, {ID: 2, Name: "grace"}}
	json.NewEncoder(w).Encode(users)
}
