// Package manual ships the default technical manual as an embedded plan.
package manual

import (
	_ "embed"

	"github.com/dgallion1/manualgen/internal/parser"
	"github.com/dgallion1/manualgen/internal/plan"
)

//go:embed manual.yaml
var source []byte

// Source returns the raw YAML of the embedded plan.
func Source() []byte {
	return source
}

// Load decodes the embedded plan. Each call returns a fresh copy.
func Load() (*plan.Plan, error) {
	return parser.DecodePlan(source)
}
