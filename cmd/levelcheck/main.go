// levelcheck validates level YAML files against the level schema and
// prints what each one would build.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/arenashooter/core/internal/data"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: levelcheck <level.yaml | levels-dir>...")
		os.Exit(1)
	}

	var files []string
	for _, arg := range os.Args[1:] {
		st, err := os.Stat(arg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if !st.IsDir() {
			files = append(files, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*.yaml"))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	failed := 0
	for _, f := range files {
		def, err := data.LoadLevel(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", f, err)
			failed++
			continue
		}
		items := map[string]int{}
		for _, it := range def.Items {
			items[it.Kind]++
		}
		fmt.Printf("ok   %s: %q, %d spawn points, %d bots, %d jump pads, items %v\n",
			f, def.Name, len(def.SpawnPoints), len(def.Bots), len(def.JumpPads), items)
	}

	fmt.Printf("Checked %d levels, %d failed\n", len(files), failed)
	if failed > 0 {
		os.Exit(1)
	}
}
