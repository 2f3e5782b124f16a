package main

import (
	"os"

	"github.com/Aidadev0831/AIDE-data-core/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
