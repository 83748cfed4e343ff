// Package interp provides the natural cubic splines used to interpolate
// power-spectrum tables.
//
// Primitives work on a single curve:
//
//   - [SecondDerivatives]: tridiagonal solve for the curvature with natural ends
//   - [Eval], [EvalAt]:     spline value at a point
//   - [Derivative]:          spline slope at a point
//   - [Locate]:              bracketing interval of a point
//
// Table helpers precompute second derivatives for a whole
// [table.Table] along one dimension: [TimeSplines] along ln(tau) for every
// (type, k), [KSplines] along ln(k) for every (type, tau). [EvalRowAtTime]
// then evaluates a complete k-row at an arbitrary time.
package interp
