package fluid

// CorrectVelocity subtracts gamma dt grad(psi) so the velocity becomes
// discretely divergence-free.
func (f *Fluid) CorrectVelocity(rk int, dt float64) {
	g := f.g
	prefactor := f.rk[rk].Gamma * dt
	for j := 1; j <= g.JSize; j++ {
		for i := 2; i <= g.ITot; i++ {
			dpsi := (f.Psi.At(i, j) - f.Psi.At(i-1, j)) / g.DXC[i]
			f.UX.Add(i, j, -prefactor*dpsi)
		}
	}
	f.UpdateBoundariesUX(f.UX)
	for j := 1; j <= g.JSize; j++ {
		for i := 1; i <= g.ITot; i++ {
			dpsi := (f.Psi.At(i, j) - f.Psi.At(i, j-1)) / g.DY
			f.UY.Add(i, j, -prefactor*dpsi)
		}
	}
	f.UpdateBoundariesUY(f.UY)
}

// UpdatePressure accumulates the scalar potential into the pressure.
func (f *Fluid) UpdatePressure() {
	g := f.g
	for j := 1; j <= g.JSize; j++ {
		p := f.P.Span(j, 1, g.ITot)
		psi := f.Psi.Span(j, 1, g.ITot)
		for i := range p {
			p[i] += psi[i]
		}
	}
	f.UpdateBoundariesP(f.P)
}
