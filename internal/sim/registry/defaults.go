package registry

func tex(all string) map[string]string { return map[string]string{"all": all} }

// DefaultDefs is the built-in palette, mirrored by configs/blocks.json.
func DefaultDefs() []BlockDef {
	return []BlockDef{
		{ID: 0, Name: "air", IsEmpty: true, IsTransparent: true},
		{ID: 1, Name: "stone", IsBlock: true, IsSolid: true, Textures: tex("stone")},
		{ID: 2, Name: "dirt", IsBlock: true, IsSolid: true, Textures: tex("dirt")},
		{ID: 3, Name: "grass", IsBlock: true, IsSolid: true, Textures: map[string]string{"top": "grass_top", "side": "grass_side", "bottom": "dirt"}},
		{ID: 4, Name: "sand", IsBlock: true, IsSolid: true, Textures: tex("sand")},
		{ID: 5, Name: "snow", IsBlock: true, IsSolid: true, Textures: tex("snow")},
		{ID: 6, Name: "water", IsBlock: true, IsTransparent: true, IsFluid: true, Textures: tex("water")},
		{ID: 7, Name: "glass", IsBlock: true, IsSolid: true, IsTransparent: true, Textures: tex("glass")},
		{ID: 8, Name: "oak_log", IsBlock: true, IsSolid: true, Textures: map[string]string{"top": "oak_log_top", "bottom": "oak_log_top", "side": "oak_log"}},
		{ID: 9, Name: "oak_leaves", IsBlock: true, IsSolid: true, IsTransparent: true, Textures: tex("oak_leaves")},
		{ID: 10, Name: "oak_planks", IsBlock: true, IsSolid: true, Textures: tex("oak_planks")},
		{ID: 11, Name: "glowstone", IsBlock: true, IsSolid: true, IsLight: true, LightLevel: 15, Textures: tex("glowstone")},
		{ID: 12, Name: "torch", IsTransparent: true, IsLight: true, LightLevel: 14, IsPlant: true, Textures: tex("torch")},
		{ID: 13, Name: "tall_grass", IsTransparent: true, IsPlant: true, Textures: tex("tall_grass")},
		{ID: 14, Name: "flower", IsTransparent: true, IsPlant: true, Textures: tex("flower")},
		{ID: 15, Name: "lava", IsBlock: true, IsFluid: true, IsLight: true, LightLevel: 15, Textures: tex("lava")},
	}
}

func Default() *Registry {
	r, err := New(DefaultDefs())
	if err != nil {
		panic(err)
	}
	return r
}
