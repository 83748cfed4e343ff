// Package sigma integrates filtered variances of a linear power spectrum.
//
// All integrals use the trapezoid rule in ln k over the full extended
// wavenumber range, sampling the ln-k spline of ln P at a configurable
// density per decade:
//
//	σ²(R)      = ∫ Δ²(k) W²(kR) dln k,             Δ² = k³P/(2π²)
//	dσ/dR      = ∫ Δ²(k) W(kR) W'(kR) k dln k / σ
//	σ²_disp(R) = 1/(6π²) ∫ P(k) W²(kR) dk
//
// The top-hat window is the default for σ and dσ/dR, the Gaussian for the
// displacement dispersion. [GaussianMoments] returns the three Gaussian
// sums from which Halofit derives σ, the effective index and the curvature.
package sigma
