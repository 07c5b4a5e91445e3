package feather2d

import (
	"fmt"
	"strings"
	"testing"

	"github.com/akmonengine/feather2d/geom"
	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
)

// simulateTrace runs a scene mixing a pyramid, falling circles and a
// pendulum, and prints every body transform of every step.
func simulateTrace(t *testing.T, workerCount int) (string, Counters) {
	w := newTestWorld(t, workers(workerCount))
	createGround(w)

	var bodies []BodyID
	bodies = append(bodies, createPyramid(w, 8)...)
	for i := range 12 {
		x := float64(i%6) - 2.5
		y := 10 + float64(i/6)*1.5
		bodies = append(bodies, createCircle(w, geom.V(x, y), 0.3))
	}

	pivot := createAnchor(w, geom.V(8, 6))
	bob := createBox(w, geom.V(11, 6), 0.25, 0.25)
	def := DefaultRevoluteJointDef()
	def.BodyIDA, def.BodyIDB = pivot, bob
	def.LocalAnchorB = geom.V(-3, 0)
	w.CreateRevoluteJoint(def)
	bodies = append(bodies, bob)

	var output strings.Builder
	for step := range 180 {
		w.Step(testTimeStep, testSubStepCount)
		for i, b := range bodies {
			p, q := b.Position(), b.Rotation()
			fmt.Fprintf(&output, "%v(%d): %.17g %.17g %.17g %.17g\n", step, i, p.X(), p.Y(), q.C, q.S)
		}
	}

	if err := w.Validate(); err != nil {
		t.Errorf("Expected a consistent world, got %v", err)
	}
	return output.String(), w.Counters()
}

func TestDeterminism_WorkerCount(t *testing.T) {
	expected, expectedCounters := simulateTrace(t, 1)

	for _, workerCount := range []int{2, 4, 7} {
		t.Run(fmt.Sprintf("%d workers", workerCount), func(t *testing.T) {
			output, counters := simulateTrace(t, workerCount)
			if output == expected {
				return
			}

			diff := difflib.UnifiedDiff{
				A:        difflib.SplitLines(expected),
				B:        difflib.SplitLines(output),
				FromFile: "1 worker",
				ToFile:   fmt.Sprintf("%d workers", workerCount),
				Context:  0,
			}
			text, _ := difflib.GetUnifiedDiffString(diff)
			if len(text) > 4000 {
				text = text[:4000]
			}
			t.Fatalf("Simulation depends on the worker count:\n%s\nexpected counters %s\ngot counters %s",
				text, spew.Sdump(expectedCounters), spew.Sdump(counters))
		})
	}
}

func TestDeterminism_Repeatable(t *testing.T) {
	first, _ := simulateTrace(t, 4)
	second, _ := simulateTrace(t, 4)

	if first != second {
		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(first),
			B:        difflib.SplitLines(second),
			FromFile: "First",
			ToFile:   "Second",
			Context:  0,
		}
		text, _ := difflib.GetUnifiedDiffString(diff)
		if len(text) > 4000 {
			text = text[:4000]
		}
		t.Fatalf("Two runs of the same scene differ:\n%s", text)
	}
}
