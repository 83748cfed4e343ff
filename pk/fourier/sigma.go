package fourier

import (
	"github.com/cwbudde/algo-cosmo/pk/core"
	"github.com/cwbudde/algo-cosmo/pk/sigma"
)

// SigmasAtZ returns the σ integral out of the linear spectrum typ at
// radius r in Mpc and redshift z.
func (c *Context) SigmasAtZ(r, z float64, typ int, out sigma.Output) (float64, error) {
	const op = "fourier.SigmasAtZ"

	if err := c.acquire(); err != nil {
		return 0, err
	}
	defer c.release()

	return c.sigmasAtZ(op, r, z, typ, out)
}

func (c *Context) sigmasAtZ(op string, r, z float64, typ int, out sigma.Output) (float64, error) {
	if !(r > 0) {
		return 0, core.Errorf(core.KindInvalidArgument, op, "radius must be > 0, got %g", r)
	}

	cv, err := c.curveAt(op, PkLinear, typ, z)
	if err != nil {
		return 0, err
	}

	spec := sigma.Spectrum{LnK: cv.lnK, LnPk: cv.lnPk, DD: cv.dd}

	return sigma.Compute(spec, r, out, sigma.WithKPerDecade(c.opts.SigmaKPerDecade))
}

// SigmaAtZ returns σ(R, z) with the top-hat window.
func (c *Context) SigmaAtZ(r, z float64, typ int) (float64, error) {
	const op = "fourier.SigmaAtZ"

	if err := c.acquire(); err != nil {
		return 0, err
	}
	defer c.release()

	return c.sigmasAtZ(op, r, z, typ, sigma.Sigma)
}

// Sigma8 returns σ at 8 Mpc/h today.
func (c *Context) Sigma8(typ int) (float64, error) {
	const op = "fourier.Sigma8"

	if err := c.acquire(); err != nil {
		return 0, err
	}
	defer c.release()

	h := c.collab.Background.Params().H

	return c.sigmasAtZ(op, 8/h, 0, typ, sigma.Sigma)
}
