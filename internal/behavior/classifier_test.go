package behavior

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func box(w, h float64) Region {
	return Region{X1: 100, Y1: 50, X2: 100 + w, Y2: 50 + h}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		region Region
		want   Label
	}{
		{"wide-box-leaning", box(300, 200), LabelLeaning},
		{"square-leaning", box(100, 100), LabelLeaning},
		{"tall-box-looking", box(100, 200), LabelLookingAround},
		{"upright-normal", box(150, 200), LabelNormal},

		// Width boundary: w == 0.9h is not leaning.
		{"width-at-ratio", box(90, 100), LabelNormal},
		{"width-just-over-ratio", box(90.01, 100), LabelLeaning},

		// Height boundary: h == 1.6w is not looking around.
		{"height-at-ratio", box(100, 160), LabelNormal},
		{"height-just-over-ratio", box(100, 160.01), LabelLookingAround},

		{"zero-size", Region{X1: 10, Y1: 10, X2: 10, Y2: 10}, LabelNormal},
		{"zero-width", box(0, 50), LabelLookingAround},
		{"zero-height", box(50, 0), LabelLeaning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.region))
		})
	}
}

func TestClassify_WidthRuleWinsTie(t *testing.T) {
	// Inverted box: w=-1, h=-1.5 satisfies both w > 0.9h and h > 1.6w.
	r := Region{X1: 10, Y1: 10, X2: 9, Y2: 8.5}
	assert.Greater(t, r.Width(), r.Height()*leaningWidthRatio)
	assert.Greater(t, r.Height(), r.Width()*lookingHeightRatio)
	assert.Equal(t, LabelLeaning, Classify(r))
}

func TestClassifyObservation(t *testing.T) {
	o := Observation{SubjectID: "s1", Region: box(40, 100)}
	assert.Equal(t, LabelLookingAround, ClassifyObservation(o))
}

func TestLabelSuspicious(t *testing.T) {
	assert.False(t, LabelNormal.Suspicious())
	assert.True(t, LabelLeaning.Suspicious())
	assert.True(t, LabelLookingAround.Suspicious())
}
