package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Problem is a fixture that failed to parse.
type Problem struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Pool summarises one machine's PATCH response pool.
type Pool struct {
	Machine   string `json:"machine"`
	Pending   int    `json:"pending"`
	Allocated int    `json:"allocated"`
}

// Report is the outcome of scanning a fixture root.
type Report struct {
	Root      string    `json:"root"`
	Fixtures  int       `json:"fixtures"`
	Malformed []Problem `json:"malformed,omitempty"`
	Pools     []Pool    `json:"pools,omitempty"`
}

// OK reports whether every fixture parsed.
func (r *Report) OK() bool {
	return len(r.Malformed) == 0
}

// Scan walks every *.json file under root, validates it, and tallies the
// PATCH response pools by machine.
func Scan(root string) (*Report, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("fixture root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fixture root is not a directory: %s", root)
	}

	fsys := os.DirFS(root)
	matches, err := doublestar.Glob(fsys, "**/*.json", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("scan fixtures: %w", err)
	}
	sort.Strings(matches)

	report := &Report{Root: root}
	pools := make(map[string]*Pool)

	poolPattern := Expand(PatchPool, map[string]string{"m": "*"}) + "/*.json"
	allocatedPattern := Expand(PatchPool, map[string]string{"m": "*"}) + "/" + AllocatedDir + "/*.json"

	for _, rel := range matches {
		report.Fixtures++

		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err == nil {
			_, _, err = Canonicalize(data)
		}
		if err != nil {
			report.Malformed = append(report.Malformed, Problem{Path: rel, Err: err.Error()})
		}

		switch {
		case matchPattern(poolPattern, rel):
			poolFor(pools, rel).Pending++
		case matchPattern(allocatedPattern, rel):
			poolFor(pools, rel).Allocated++
		}
	}

	for _, p := range pools {
		report.Pools = append(report.Pools, *p)
	}
	sort.Slice(report.Pools, func(i, j int) bool {
		return report.Pools[i].Machine < report.Pools[j].Machine
	})

	return report, nil
}

func matchPattern(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}

// poolFor returns the pool of the machine named by the second segment of rel
// ("machines/<m>/fm_patch_response/...").
func poolFor(pools map[string]*Pool, rel string) *Pool {
	machine := strings.SplitN(rel, "/", 3)[1]
	p, ok := pools[machine]
	if !ok {
		p = &Pool{Machine: machine}
		pools[machine] = p
	}
	return p
}
