// imgbuild main entrypoint
//
// Builds the images declared in imgbuild.yaml with docker buildx, reading
// and writing a registry layer cache and retrying known transient registry
// failures. Runs the same way in GitLab CI, GitHub Actions and locally.

package main

import (
	"os"

	"github.com/joho/godotenv"

	"imgbuild/internal/cli"
)

func main() {
	// Local overrides for dev runs; harmless in CI.
	_ = godotenv.Load(".env")

	os.Exit(cli.Execute())
}
