package main

// defaultCatalogTOML is the variable catalog used when --catalog is not
// given: one small set of variables over internal/simref's reference
// game, exercising a plain global, pointer derefs through ->, an array
// index, a struct field, a flag mask (mario-on-ground), and the
// nullable chain gMario->area?->camera.pos[1].
const defaultCatalogTOML = `
[[variable]]
name = "global-timer"
group = "misc"
path = "gGlobalTimer"

[[variable]]
name = "mario-x"
group = "position"
path = "gMario->pos[0]"

[[variable]]
name = "mario-y"
group = "position"
path = "gMario->pos[1]"

[[variable]]
name = "mario-z"
group = "position"
path = "gMario->pos[2]"

[[variable]]
name = "mario-hp"
group = "status"
path = "gMario->health"

[[variable]]
name = "mario-action"
group = "status"
path = "gMario->action"

[[variable]]
name = "mario-on-ground"
group = "status"
path = "gMario->flags"
flag = "FLAG_ON_GROUND"

[[variable]]
name = "mario-camera-y"
group = "camera"
path = "gMario->area?->camera.pos[1]"
label = "camera height, 0 when Mario has no area"
`
