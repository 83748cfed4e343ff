// Package cosmology defines the collaborators the power-spectrum pipeline
// consumes: the background expansion, the recombination history, the linear
// transfer sources and the primordial spectrum.
//
// # Reference implementations
//
// The package ships lightweight implementations that are good enough to
// drive the pipeline end to end:
//
//   - [FlatBackground]: flat universe with matter, radiation and a CPL
//     (w0, wa) dark-energy fluid; numerical conformal time and linear growth
//   - [FittedThermo]: recombination redshift from the Hu–Sugiyama fit
//   - [PowerLawPrimordial]: power-law spectra for several, possibly
//     correlated, initial conditions
//   - [EHPerturbations]: density sources from the Eisenstein–Hu (1998)
//     transfer function times the linear growth factor
//
// Units follow the usual Boltzmann-code conventions: wavenumbers in 1/Mpc,
// conformal time in Mpc, power spectra in Mpc^3.
package cosmology
