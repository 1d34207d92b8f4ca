package network

// AccessProperties are the per-mode physical properties bundled on a link
// segment type.
type AccessProperties struct {
	MaxSpeedKmh      float64
	CriticalSpeedKmh float64
}

// LinkSegmentType is a named bundle describing which modes may traverse a
// segment and at what speed. Types are immutable once registered on a layer;
// access deltas always produce a new registered type instead of mutating an
// existing one.
type LinkSegmentType struct {
	id         int64
	name       string
	externalID string
	access     map[Mode]AccessProperties
}

func (t *LinkSegmentType) ID() int64 {
	return t.id
}

func (t *LinkSegmentType) Name() string {
	return t.name
}

func (t *LinkSegmentType) ExternalID() string {
	return t.externalID
}

// Allows reports whether the mode has access under this type.
func (t *LinkSegmentType) Allows(m Mode) bool {
	_, ok := t.access[m]
	return ok
}

// AccessOf returns the access properties of a mode.
func (t *LinkSegmentType) AccessOf(m Mode) (AccessProperties, bool) {
	props, ok := t.access[m]
	return props, ok
}

// Modes returns the set of modes with access.
func (t *LinkSegmentType) Modes() ModeSet {
	out := NewModeSet()
	for m := range t.access {
		out.Add(m)
	}
	return out
}

// HasEqualAccessGroup reports whether some mode on this type already carries
// exactly the given properties. The type resolver reuses such groups instead
// of proliferating near-identical ones.
func (t *LinkSegmentType) HasEqualAccessGroup(props AccessProperties) (Mode, bool) {
	for _, m := range t.Modes().Sorted() {
		if t.access[m] == props {
			return m, true
		}
	}
	return 0, false
}

func (t *LinkSegmentType) cloneAccess() map[Mode]AccessProperties {
	out := make(map[Mode]AccessProperties, len(t.access))
	for m, props := range t.access {
		out[m] = props
	}
	return out
}
