//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Search builds the CLI and runs a search for $TOPIC, saving the results
// under outputs/queries/ and writing debug snapshots.
func Search() error {
	mg.Deps(Build, Init)

	topic := os.Getenv("TOPIC")
	if topic == "" {
		return fmt.Errorf("set TOPIC, e.g. TOPIC=\"zero-shot learning\" mage search")
	}
	slug, err := sh.Output("bin/paperfuse", "slug", topic)
	if err != nil {
		return err
	}
	return sh.RunV("bin/paperfuse", "search", topic,
		"--debug",
		"--save", "outputs/queries/"+slug+".yaml")
}
