// Package nowiggle builds power spectra without baryon acoustic
// oscillations.
//
// # Analytic
//
// [Analytic] evaluates the Eisenstein–Hu zero-baryon-oscillation fit times
// the primordial spectrum and the growth factor today, normalized through
// the Poisson equation. It never reads the numerical linear table.
//
// # Numerical
//
// [Numerical] removes the wiggles of the computed linear spectrum. For each
// output time the difference ln P − ln P_ref to the analytic broadband
// shape is resampled on a uniform ln k grid, padded with tapered
// reflections, low-pass filtered with a Gaussian in Fourier space and added
// back. The FFT work is done by a reusable [Smoother].
package nowiggle
