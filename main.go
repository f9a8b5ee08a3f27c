package main

import (
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/prodsync/prodsync/cmd"
)

func main() {
	cmd.Execute()
}
