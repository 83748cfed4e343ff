// Package fourier builds and queries the matter power spectrum tables.
//
// [New] runs the whole pipeline once against the upstream collaborators
// (background, thermodynamics, perturbations, primordial spectrum) and
// returns an immutable [Context]:
//
//   - spectrum indices and the k and τ grids,
//   - linear per-pair and total log-power tables,
//   - the high-k extension of the linear tables,
//   - optional analytic and numerical no-wiggle spectra,
//   - the nonlinear correction of the selected method.
//
// # Queries
//
// P(k, z) queries spline-interpolate in ln τ and ln k. Below the smallest
// stored wavenumber the spectrum follows P ∝ k·P_R(k) with the primordial
// spectrum re-evaluated at k. Above the native range linear output reads
// the extension while nonlinear output is rejected. Redshifts outside
// [0, z_max], or before the first nonlinear time for nonlinear output,
// are out of range.
//
// No-wiggle spectra exist for the clustering species only: CDM+baryon when
// it is tabulated, total matter otherwise.
//
// # Errors
//
// Every error carries a [core.Kind]; test with errors.Is against
// core.ErrOutOfRange and the other sentinels.
//
// # Concurrency
//
// Queries may run concurrently. [Context.Close] releases the tables and
// makes later queries fail with [ErrClosed].
package fourier
