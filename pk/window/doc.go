// Package window provides the pad tapers and spectral responses used to
// low-pass filter log power spectra.
//
// A resampled curve is extended by a pad before it is transformed. The pad
// starts as a reflection of both ends and a [Taper] blends it towards the
// curve mean, so that the periodic FFT sees no jump at the wrap-around:
//
//	w, err := window.Taper{Shape: window.ShapeTukey, Alpha: 0.5}.Blend(n)
//	err = window.ApplyInPlace(pad, w)
//
// [GaussianResponse] returns the Fourier-space transfer function of a
// Gaussian smoothing kernel sampled on the FFT bins of a uniform grid.
package window
