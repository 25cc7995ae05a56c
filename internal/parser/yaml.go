package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/dgallion1/manualgen/internal/plan"
	"github.com/goccy/go-yaml"
)

// MaxPlanSize limits plan documents to keep decoding bounded.
var MaxPlanSize = 4 << 20

// ErrEmptyPlan is returned for an empty plan document.
var ErrEmptyPlan = errors.New("empty plan document")

// PlanParser reads plan documents written in YAML or JSON. Unknown fields
// are rejected.
type PlanParser struct{}

func (p *PlanParser) Parse(r io.Reader, filename string) (*plan.Plan, error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(MaxPlanSize)+1))
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return DecodePlan(data)
}

// DecodePlan decodes a YAML or JSON plan document strictly and normalizes
// its text.
func DecodePlan(data []byte) (*plan.Plan, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPlan
	}
	if len(data) > MaxPlanSize {
		return nil, fmt.Errorf("plan document exceeds %d bytes", MaxPlanSize)
	}
	var out plan.Plan
	if err := yaml.UnmarshalWithOptions(data, &out, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	plan.Normalize(&out)
	return &out, nil
}
