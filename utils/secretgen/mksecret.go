// Standalone generator for photochain user secrets. Every device of
// the same user must be given a copy of the generated file.
package main

import (
	"flag"
	"log"

	"github.com/photochain-sys/photochain-go/crypto"
	"github.com/photochain-sys/photochain-go/utils"
)

func main() {
	var out = flag.String("out", "user.secret", "Path of the generated secret file")
	flag.Parse()

	secret, err := crypto.MakeRand()
	if err != nil {
		log.Fatal(err)
	}
	if err := utils.WriteFile(*out, secret, 0600); err != nil {
		log.Fatal(err)
	}
}
