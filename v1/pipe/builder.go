package pipe

// Step is one registration collected by a Builder.
type Step struct {
	Key  string
	Args []any
}

type builder struct {
	steps []Step
}

// NewBuilder returns an empty Builder.
func NewBuilder() Builder {
	return &builder{}
}

func (b *builder) Use(key string, args ...any) Builder {
	b.steps = append(b.steps, Step{Key: key, Args: args})
	return b
}

func (b *builder) Replace(key, newKey string, args ...any) Builder {
	for i := range b.steps {
		if b.steps[i].Key == key {
			b.steps[i] = Step{Key: newKey, Args: args}
		}
	}
	return b
}

func (b *builder) Remove(key string) Builder {
	kept := b.steps[:0]
	for _, s := range b.steps {
		if s.Key != key {
			kept = append(kept, s)
		}
	}
	b.steps = kept
	return b
}

func (b *builder) Steps() []Step {
	out := make([]Step, len(b.steps))
	copy(out, b.steps)
	return out
}

// Then returns an Action applying a and then each of next.
func (a Action) Then(next ...Action) Action {
	return func(b Builder) {
		if a != nil {
			a(b)
		}
		for _, n := range next {
			if n != nil {
				n(b)
			}
		}
	}
}
