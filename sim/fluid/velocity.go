package fluid

// UpdateVelocity recomputes the Runge-Kutta sources from the current state
// and advances ux and uy by one explicit sub-step.
func (f *Fluid) UpdateVelocity(rk int, dt float64) {
	f.computeSrcUX()
	f.computeSrcUY()
	c := f.rk[rk]
	g := f.g
	for j := 1; j <= g.JSize; j++ {
		for i := 2; i <= g.ITot; i++ {
			f.UX.Add(i, j,
				c.Alpha*dt*f.SrcUXA.At(i, j)+
					c.Beta*dt*f.SrcUXB.At(i, j)+
					c.Gamma*dt*f.SrcUXG.At(i, j))
		}
	}
	f.UpdateBoundariesUX(f.UX)
	for j := 1; j <= g.JSize; j++ {
		for i := 1; i <= g.ITot; i++ {
			f.UY.Add(i, j,
				c.Alpha*dt*f.SrcUYA.At(i, j)+
					c.Beta*dt*f.SrcUYB.At(i, j)+
					c.Gamma*dt*f.SrcUYG.At(i, j))
		}
	}
	f.UpdateBoundariesUY(f.UY)
}

// computeSrcUX evaluates advection, diffusion and the pressure gradient of
// x-momentum on the interior x faces. ux on the walls is fixed.
func (f *Fluid) computeSrcUX() {
	g := f.g
	ux, uy, p := f.UX, f.UY, f.P
	dy := g.DY
	rei := 1 / f.params.Re
	f.SrcUXB.CopyFrom(f.SrcUXA)
	for j := 1; j <= g.JSize; j++ {
		for i := 2; i <= g.ITot; i++ {
			duxdxM := (ux.At(i, j) - ux.At(i-1, j)) / g.DXF[i-1]
			duxdxP := (ux.At(i+1, j) - ux.At(i, j)) / g.DXF[i]
			duxdyM := (ux.At(i, j) - ux.At(i, j-1)) / dy
			duxdyP := (ux.At(i, j+1) - ux.At(i, j)) / dy

			cM := g.DXF[i-1] / (2 * g.DXC[i])
			cP := g.DXF[i] / (2 * g.DXC[i])

			uxM := 0.5 * (ux.At(i-1, j) + ux.At(i, j))
			uxP := 0.5 * (ux.At(i, j) + ux.At(i+1, j))
			adv1 := -cM*uxM*duxdxM - cP*uxP*duxdxP

			uyM := cM*uy.At(i-1, j) + cP*uy.At(i, j)
			uyP := cM*uy.At(i-1, j+1) + cP*uy.At(i, j+1)
			adv2 := -0.5*uyM*duxdyM - 0.5*uyP*duxdyP

			dif1 := rei * (duxdxP - duxdxM) / g.DXC[i]
			dif2 := rei * (duxdyP - duxdyM) / dy

			f.SrcUXA.Set(i, j, adv1+adv2+dif1+dif2)
			f.SrcUXG.Set(i, j, -(p.At(i, j)-p.At(i-1, j))/g.DXC[i])
		}
	}
}

// computeSrcUY evaluates the same terms for y-momentum plus the body force.
func (f *Fluid) computeSrcUY() {
	g := f.g
	ux, uy, p := f.UX, f.UY, f.P
	dy := g.DY
	rei := 1 / f.params.Re
	f.SrcUYB.CopyFrom(f.SrcUYA)
	for j := 1; j <= g.JSize; j++ {
		for i := 1; i <= g.ITot; i++ {
			duydxM := (uy.At(i, j) - uy.At(i-1, j)) / g.DXC[i]
			duydxP := (uy.At(i+1, j) - uy.At(i, j)) / g.DXC[i+1]
			duydyM := (uy.At(i, j) - uy.At(i, j-1)) / dy
			duydyP := (uy.At(i, j+1) - uy.At(i, j)) / dy

			cM := g.DXC[i] / (2 * g.DXF[i])
			cP := g.DXC[i+1] / (2 * g.DXF[i])
			uxM := 0.5 * (ux.At(i, j-1) + ux.At(i, j))
			uxP := 0.5 * (ux.At(i+1, j-1) + ux.At(i+1, j))
			adv1 := -cM*uxM*duydxM - cP*uxP*duydxP

			uyM := 0.5 * (uy.At(i, j-1) + uy.At(i, j))
			uyP := 0.5 * (uy.At(i, j) + uy.At(i, j+1))
			adv2 := -0.5*uyM*duydyM - 0.5*uyP*duydyP

			dif1 := rei * (duydxP - duydxM) / g.DXF[i]
			dif2 := rei * (duydyP - duydyM) / dy

			f.SrcUYA.Set(i, j, adv1+adv2+dif1+dif2+f.params.ExtForceY)
			f.SrcUYG.Set(i, j, -(p.At(i, j)-p.At(i, j-1))/dy)
		}
	}
}
