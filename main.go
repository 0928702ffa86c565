// The main package for the previewd executable.
package main

import (
	"github.com/scrapable/preview-service/cmd"
)

func main() {
	cmd.Execute()
}
