package document

// Clone returns a deep copy of d. Slices, image bytes and emblem pointers
// are duplicated, so the copy can be mutated without touching d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Header = d.Header.clone()
	if d.Sections != nil {
		c.Sections = make([]Section, len(d.Sections))
		for i := range d.Sections {
			c.Sections[i] = d.Sections[i].clone()
		}
	}
	return &c
}

func (h Header) clone() Header {
	h.AddressLines = cloneSlice(h.AddressLines)
	h.LeftEmblem = h.LeftEmblem.clone()
	h.RightEmblem = h.RightEmblem.clone()
	return h
}

func (img *Image) clone() *Image {
	if img == nil {
		return nil
	}
	c := *img
	c.Data = cloneSlice(img.Data)
	return &c
}

func (s Section) clone() Section {
	s.Points = cloneSlice(s.Points)
	s.Budget = cloneSlice(s.Budget)
	s.Signatories = cloneSlice(s.Signatories)
	s.Recipients = cloneSlice(s.Recipients)
	if s.Photos != nil {
		photos := make([]Photo, len(s.Photos))
		for i, p := range s.Photos {
			photos[i] = Photo{Image: *p.Image.clone(), Caption: p.Caption}
		}
		s.Photos = photos
	}
	if s.Tiers != nil {
		tiers := make([]Tier, len(s.Tiers))
		for i, t := range s.Tiers {
			tiers[i] = Tier{Name: t.Name, Members: cloneSlice(t.Members)}
		}
		s.Tiers = tiers
	}
	return s
}

// cloneSlice copies a slice of values, keeping nil as nil.
func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
