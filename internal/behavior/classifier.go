package behavior

// #region ratios

const (
	leaningWidthRatio  = 0.9 // width beyond this fraction of height reads as leaning
	lookingHeightRatio = 1.6 // height beyond this multiple of width reads as turned away
)

// #endregion

// #region classify

// Classify maps a person bounding box to a posture label. Pure arithmetic, no model call.
// The width rule is checked before the height rule; a zero-size box is Normal.
func Classify(r Region) Label {
	w := r.Width()
	h := r.Height()

	if w > h*leaningWidthRatio {
		return LabelLeaning
	}
	if h > w*lookingHeightRatio {
		return LabelLookingAround
	}
	return LabelNormal
}

// ClassifyObservation is Classify applied to an observation's region.
func ClassifyObservation(o Observation) Label {
	return Classify(o.Region)
}

// #endregion
