// Package nonlinear corrects linear matter power spectra for nonlinear
// clustering.
//
// A [Corrector] turns the extended linear log-power table into a table of
// correction factors √(P_NL/P_L) over the native wavenumbers, the nonlinear
// log power, the nonlinear wavenumber k_nl per spectrum type and time, and
// the index of the earliest time with a valid correction.
//
// # Strategies
//
//   - [None]: factor 1 everywhere, k_nl = +Inf
//   - [Halofit]: Takahashi et al. (2012) with the Bird et al. (2012) massive
//     neutrino terms; the nonlinear radius solves σ(R)=1 for a Gaussian
//     filter by bounded bisection
//   - [HMcode]: the halo model of Mead et al. in its 2015 and 2020 variants
//     (see [Version]), with baryonic feedback either from calibrated
//     presets ([Feedback]) or from the AGN heating temperature
//
// Times are processed from today backwards. A strategy stops as soon as the
// nonlinear scale moves beyond the largest native wavenumber; earlier times
// are then reported through Result.NLStart.
//
// # Effective dark energy
//
// For a time-varying equation of state [PkEq] maps every output time to a
// constant-w model with the same conformal distance to recombination. The
// fitting formulas then use that model's w and Ω_m(z).
package nonlinear
