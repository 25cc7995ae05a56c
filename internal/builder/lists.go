package builder

import (
	"github.com/dgallion1/manualgen/internal/plan"
	"github.com/dgallion1/manualgen/internal/style"
)

// assignLists sets numID on every list item step. A maximal run of
// consecutive list items is one list: its bullets share the bullet
// numbering and its numbered items share one fresh numbering instance, so
// numbering restarts only after the list is interrupted. It returns the
// number of numbered instances allocated.
func assignLists(steps []step) int {
	instances := 0
	for i := 0; i < len(steps); {
		if steps[i].block.Kind != plan.KindListItem {
			i++
			continue
		}
		end := i
		for end < len(steps) && steps[end].block.Kind == plan.KindListItem {
			end++
		}
		numbered := 0
		for j := i; j < end; j++ {
			if steps[j].block.List != plan.ListNumber {
				steps[j].numID = style.BulletNumID
				continue
			}
			if numbered == 0 {
				numbered = style.FirstNumberedID + instances
				instances++
			}
			steps[j].numID = numbered
		}
		i = end
	}
	return instances
}
