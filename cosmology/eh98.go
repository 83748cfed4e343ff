package cosmology

import "math"

// EH98 holds the precomputed constants of the Eisenstein & Hu (1998)
// transfer-function fits. Wavenumbers are in 1/Mpc.
type EH98 struct {
	omhh, fb, theta2 float64

	kEq, soundHorizon, kSilk float64
	alphaC, betaC            float64
	alphaB, betaB, betaNode  float64
	sNoWiggle, alphaGamma    float64
}

// NewEH98 prepares the fits for matter density omhh = Ω_m h², baryon
// density obhh = Ω_b h² and CMB temperature tcmb in K.
func NewEH98(omhh, obhh, tcmb float64) *EH98 {
	theta := tcmb / 2.7
	theta2 := theta * theta
	theta4 := theta2 * theta2
	fb := obhh / omhh
	fc := 1 - fb

	zEq := 2.50e4 * omhh / theta4
	kEq := 0.0746 * omhh / theta2

	b1 := 0.313 * math.Pow(omhh, -0.419) * (1 + 0.607*math.Pow(omhh, 0.674))
	b2 := 0.238 * math.Pow(omhh, 0.223)
	zDrag := 1291 * math.Pow(omhh, 0.251) / (1 + 0.659*math.Pow(omhh, 0.828)) * (1 + b1*math.Pow(obhh, b2))

	rDrag := 31.5 * obhh / theta4 * (1000 / (1 + zDrag))
	rEq := 31.5 * obhh / theta4 * (1000 / zEq)

	s := 2 / (3 * kEq) * math.Sqrt(6/rEq) *
		math.Log((math.Sqrt(1+rDrag)+math.Sqrt(rDrag+rEq))/(1+math.Sqrt(rEq)))

	kSilk := 1.6 * math.Pow(obhh, 0.52) * math.Pow(omhh, 0.73) * (1 + math.Pow(10.4*omhh, -0.95))

	a1 := math.Pow(46.9*omhh, 0.670) * (1 + math.Pow(32.1*omhh, -0.532))
	a2 := math.Pow(12.0*omhh, 0.424) * (1 + math.Pow(45.0*omhh, -0.582))
	alphaC := math.Pow(a1, -fb) * math.Pow(a2, -fb*fb*fb)

	bc1 := 0.944 / (1 + math.Pow(458*omhh, -0.708))
	bc2 := math.Pow(0.395*omhh, -0.0266)
	betaC := 1 / (1 + bc1*(math.Pow(fc, bc2)-1))

	y := zEq / (1 + zDrag)
	sy := math.Sqrt(1 + y)
	g := y * (-6*sy + (2+3*y)*math.Log((sy+1)/(sy-1)))
	alphaB := 2.07 * kEq * s * math.Pow(1+rDrag, -0.75) * g

	return &EH98{
		omhh:         omhh,
		fb:           fb,
		theta2:       theta2,
		kEq:          kEq,
		soundHorizon: s,
		kSilk:        kSilk,
		alphaC:       alphaC,
		betaC:        betaC,
		alphaB:       alphaB,
		betaB:        0.5 + fb + (3-2*fb)*math.Sqrt(math.Pow(17.2*omhh, 2)+1),
		betaNode:     8.41 * math.Pow(omhh, 0.435),
		sNoWiggle:    44.5 * math.Log(9.83/omhh) / math.Sqrt(1+10*math.Pow(obhh, 0.75)),
		alphaGamma:   1 - 0.328*math.Log(431*omhh)*fb + 0.38*math.Log(22.3*omhh)*fb*fb,
	}
}

// SoundHorizon returns the sound horizon at the drag epoch in Mpc.
func (e *EH98) SoundHorizon() float64 { return e.soundHorizon }

// KEquality returns the horizon scale at matter-radiation equality in 1/Mpc.
func (e *EH98) KEquality() float64 { return e.kEq }

// Transfer returns the full transfer function including baryon acoustic
// oscillations.
func (e *EH98) Transfer(k float64) float64 {
	if k <= 0 {
		return 1
	}

	q := k / (13.41 * e.kEq)
	xx := k * e.soundHorizon

	lnBeta := math.Log(math.E + 1.8*e.betaC*q)
	lnNoBeta := math.Log(math.E + 1.8*q)
	cAlpha := 14.2/e.alphaC + 386/(1+69.9*math.Pow(q, 1.08))
	cNoAlpha := 14.2 + 386/(1+69.9*math.Pow(q, 1.08))

	f := 1 / (1 + math.Pow(xx/5.4, 4))
	tc := f*lnBeta/(lnBeta+cNoAlpha*q*q) + (1-f)*lnBeta/(lnBeta+cAlpha*q*q)

	sTilde := e.soundHorizon / math.Cbrt(1+math.Pow(e.betaNode/xx, 3))
	xt := k * sTilde

	t0 := lnNoBeta / (lnNoBeta + cNoAlpha*q*q)
	tb := sinc(xt) * (t0/(1+math.Pow(xx/5.2, 2)) +
		e.alphaB/(1+math.Pow(e.betaB/xx, 3))*math.Exp(-math.Pow(k/e.kSilk, 1.4)))

	return e.fb*tb + (1-e.fb)*tc
}

// NoWiggle returns the zero-baryon-oscillation transfer function with the
// baryon suppression of the broadband shape.
func (e *EH98) NoWiggle(k float64) float64 {
	if k <= 0 {
		return 1
	}

	gammaEff := e.omhh * (e.alphaGamma + (1-e.alphaGamma)/(1+math.Pow(0.43*k*e.sNoWiggle, 4)))
	q := k * e.theta2 / gammaEff

	l0 := math.Log(2*math.E + 1.8*q)
	c0 := 14.2 + 731/(1+62.5*q)

	return l0 / (l0 + c0*q*q)
}

// QScale returns the wavenumber in 1/Mpc that normalizes the shape
// parameter q = k/QScale of the zero-baryon fit.
func (e *EH98) QScale() float64 { return e.omhh / e.theta2 }

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-4 {
		return 1 - x*x/6
	}

	return math.Sin(x) / x
}
