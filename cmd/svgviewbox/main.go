// Command svgviewbox optimizes a folder of SVG icons and writes an HTML
// page setting their viewBox with the browser bounding box.
package main

import "os"

// Version is set from build flags.
var Version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
