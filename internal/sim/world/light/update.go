package light

import "voxelmine.ai/internal/sim/world/chunk"

// Update repairs the height map and both light channels after the voxel at the
// change position was overwritten. The voxel itself must already hold c.New.
func (p *Propagator) Update(s Space, c Change) {
	if c.Old == c.New {
		return
	}
	p.UpdateHeight(s, c)

	oldDef, newDef := p.reg.Get(c.Old), p.reg.Get(c.New)
	torchRemoved := false
	if oldDef.IsLight {
		p.RemoveLight(s, c.X, c.Y, c.Z, chunk.Torch)
		torchRemoved = true
	}
	if oldDef.IsTransparent && !newDef.IsTransparent {
		if !torchRemoved {
			p.RemoveLight(s, c.X, c.Y, c.Z, chunk.Torch)
		}
		p.RemoveLight(s, c.X, c.Y, c.Z, chunk.Sun)
	}

	if newDef.IsLight {
		if s.Light(c.X, c.Y, c.Z, chunk.Torch) < newDef.LightLevel {
			s.SetLight(c.X, c.Y, c.Z, chunk.Torch, newDef.LightLevel)
		}
		p.Flood(s, []Node{{c.X, c.Y, c.Z}}, chunk.Torch)
	}
	if newDef.IsTransparent && !oldDef.IsTransparent {
		p.reseed(s, c.X, c.Y, c.Z, chunk.Sun)
		p.reseed(s, c.X, c.Y, c.Z, chunk.Torch)
	}
}

func (p *Propagator) UpdateMany(s Space, changes []Change) {
	for _, c := range changes {
		p.Update(s, c)
	}
}

// reseed relights a cell that just became transparent: full sun under open
// sky, otherwise whatever its lit neighbors flood into it.
func (p *Propagator) reseed(s Space, x, y, z int, ch chunk.Channel) {
	if ch == chunk.Sun && y >= s.MaxHeightAt(x, z) && p.openAbove(s, x, y, z) {
		s.SetLight(x, y, z, ch, p.maxLevel)
		p.Flood(s, []Node{{x, y, z}}, ch)
		return
	}
	var seeds []Node
	for _, off := range dirs {
		ny := y + off[1]
		if ny < 0 || ny >= p.maxHeight {
			continue
		}
		if s.Light(x+off[0], ny, z+off[2], ch) > 0 {
			seeds = append(seeds, Node{x + off[0], ny, z + off[2]})
		}
	}
	p.Flood(s, seeds, ch)
}

// openAbove reports whether the cell directly above carries unattenuated sky light.
func (p *Propagator) openAbove(s Space, x, y, z int) bool {
	if y+1 >= p.maxHeight {
		return true
	}
	return s.Light(x, y+1, z, chunk.Sun) == p.maxLevel
}

// UpdateHeight keeps the height map in step with a voxel write.
func (p *Propagator) UpdateHeight(s Space, c Change) {
	h := s.MaxHeightAt(c.X, c.Z)
	switch {
	case c.New != 0 && c.Y > h:
		s.SetMaxHeightAt(c.X, c.Z, c.Y)
	case c.New == 0 && c.Y == h:
		top := 0
		for y := c.Y - 1; y >= 0; y-- {
			if s.VoxelAt(c.X, y, c.Z) != 0 {
				top = y
				break
			}
		}
		s.SetMaxHeightAt(c.X, c.Z, top)
	}
}
