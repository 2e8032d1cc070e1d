package main

import (
	"log"

	"github.com/whichbid/whichbid/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
