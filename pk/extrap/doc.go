// Package extrap continues linear power spectra beyond the largest native
// wavenumber.
//
// Laws act on the transfer amplitude |δ|(k) = √(P k³ / (2π² P_R)) so that the
// primordial tilt is carried into the extension exactly. The continued log
// power is rebuilt from the law and the primordial spectrum re-evaluated at
// every extended k.
//
// # Laws
//
//   - [Zero]: no extension; incompatible with a non-empty extension
//   - [OnlyMax]: flat transfer amplitude
//   - [OnlyMaxUnits]: flat transfer function, δ ∝ k²
//   - [MaxScaled]: δ_max + δ'_max ln(k/k_max), value and slope matched
//   - [HMcode]: logarithmic CDM shape of the zero-baryon fit, value matched
//   - [UserDefined]: caller-supplied shape, value matched
//
// Off-diagonal IC cosines are continued flat.
package extrap
