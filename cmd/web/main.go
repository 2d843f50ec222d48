package main

import (
	"log"

	"github.com/ayuko3939/ft-transcendence-sub000/internal/server"
)

func main() {
	if err := server.Run(); err != nil {
		log.Fatal(err.Error())
	}
}
