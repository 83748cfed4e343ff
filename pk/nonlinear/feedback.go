package nonlinear

import (
	"strings"

	"github.com/cwbudde/algo-cosmo/pk/core"
)

// Feedback selects the baryonic feedback calibration of HMcode 2015.
type Feedback int

const (
	FeedbackEmuDMOnly Feedback = iota
	FeedbackOWLSDMOnly
	FeedbackOWLSRef
	FeedbackOWLSAGN
	FeedbackOWLSDBLim
	FeedbackUserDefined
)

var feedbackNames = map[Feedback]string{
	FeedbackEmuDMOnly:   "emu_dmonly",
	FeedbackOWLSDMOnly:  "owls_dmonly",
	FeedbackOWLSRef:     "owls_ref",
	FeedbackOWLSAGN:     "owls_agn",
	FeedbackOWLSDBLim:   "owls_dblim",
	FeedbackUserDefined: "user_defined",
}

func (f Feedback) String() string {
	if s, ok := feedbackNames[f]; ok {
		return s
	}

	return "unknown"
}

// ParseFeedback returns the feedback model with the given name.
func ParseFeedback(s string) (Feedback, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FeedbackEmuDMOnly, nil
	}

	for f, name := range feedbackNames {
		if name == s {
			return f, nil
		}
	}

	return 0, core.Errorf(core.KindInconsistentConfig, "nonlinear.ParseFeedback", "unknown feedback model %q", s)
}

// haloShape is the concentration amplitude and bloating offset of a
// feedback model.
type haloShape struct {
	cMin, eta0 float64
}

// shape returns the calibrated (c_min, η0). User-defined feedback takes
// both values from cMin and eta0, which must be positive.
func (f Feedback) shape(cMin, eta0 float64) (haloShape, error) {
	const op = "nonlinear.Feedback"

	switch f {
	case FeedbackEmuDMOnly:
		return haloShape{cMin: 3.13, eta0: 0.603}, nil
	case FeedbackOWLSDMOnly:
		return haloShape{cMin: 3.43, eta0: 0.64}, nil
	case FeedbackOWLSRef:
		return haloShape{cMin: 3.91, eta0: 0.68}, nil
	case FeedbackOWLSAGN:
		return haloShape{cMin: 2.32, eta0: 0.76}, nil
	case FeedbackOWLSDBLim:
		return haloShape{cMin: 3.01, eta0: 0.70}, nil
	case FeedbackUserDefined:
		if !(cMin > 0) || !(eta0 > 0) {
			return haloShape{}, core.Errorf(core.KindInconsistentConfig, op,
				"user_defined feedback needs c_min and eta_0 > 0, got %g and %g", cMin, eta0)
		}

		return haloShape{cMin: cMin, eta0: eta0}, nil
	default:
		return haloShape{}, core.Errorf(core.KindInconsistentConfig, op, "unknown feedback model %d", int(f))
	}
}
