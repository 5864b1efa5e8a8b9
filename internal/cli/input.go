package cli

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
	"github.com/matzehuels/arithgraph/pkg/graph"
	"github.com/matzehuels/arithgraph/pkg/graph/gen"
)

// loadGraph resolves a graph argument. An existing file is read as JSON or
// YAML; anything else is parsed as a generator spec such as "cycle:5".
func loadGraph(arg string) (*graph.Graph, error) {
	if _, err := os.Stat(arg); err == nil {
		return graph.ReadFile(arg)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "graph %s", arg)
	}

	if !strings.Contains(arg, ":") {
		return nil, apperrors.New(apperrors.ErrCodeFileNotFound,
			"graph %q is neither a file nor a generator spec (try %s)", arg, strings.Join(specExamples, ", "))
	}
	return gen.Parse(arg)
}

var specExamples = []string{"path:5", "cycle:4", "complete:4", "star:3", "bident:2", "tree:2,3"}

// graphArgHelp is shared by commands taking a graph argument.
const graphArgHelp = `GRAPH is a JSON or YAML node-link file, or a generator spec:

  empty:N  path:N  cycle:N  complete:N  star:LEAVES  bident:LENGTH  tree:BRANCHING,HEIGHT`
