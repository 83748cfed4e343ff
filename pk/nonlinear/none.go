package nonlinear

// None leaves the linear spectrum unchanged.
type None struct{}

// Method returns MethodNone.
func (None) Method() Method { return MethodNone }

// Correct returns unit corrections and k_nl = +Inf at every time.
func (None) Correct(in *Input) (*Result, error) {
	if err := in.validate("nonlinear.None"); err != nil {
		return nil, err
	}

	return newResult(in)
}
