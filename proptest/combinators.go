package proptest

// OneOf returns a random element from the provided values.
// Panics if values is empty.
func OneOf[T any](g *Generator, values ...T) T {
	if len(values) == 0 {
		panic("proptest: OneOf called with no values")
	}
	return values[g.Intn(len(values))]
}

// OneOfFunc calls a random generator function from the provided functions.
// Panics if fns is empty.
func OneOfFunc[T any](g *Generator, fns ...func(*Generator) T) T {
	if len(fns) == 0 {
		panic("proptest: OneOfFunc called with no functions")
	}
	return fns[g.Intn(len(fns))](g)
}

// Pick returns a random element from a non-empty slice.
// Panics if slice is empty.
func Pick[T any](g *Generator, slice []T) T {
	if len(slice) == 0 {
		panic("proptest: Pick called with empty slice")
	}
	return slice[g.Intn(len(slice))]
}

// Shuffle returns a shuffled copy of the slice.
func Shuffle[T any](g *Generator, slice []T) []T {
	result := make([]T, len(slice))
	copy(result, slice)
	g.rng.Shuffle(len(result), func(i, j int) {
		result[i], result[j] = result[j], result[i]
	})
	return result
}

// Slice generates a slice of length [0, maxLen] using the generator function.
func Slice[T any](g *Generator, maxLen int, gen func(*Generator) T) []T {
	if maxLen <= 0 {
		return nil
	}
	length := g.Intn(maxLen + 1)
	return SliceExact(g, length, gen)
}

// SliceN generates a slice of length [minLen, maxLen] using the generator function.
func SliceN[T any](g *Generator, minLen, maxLen int, gen func(*Generator) T) []T {
	if minLen > maxLen {
		panic("proptest: SliceN minLen > maxLen")
	}
	length := g.IntRange(minLen, maxLen)
	return SliceExact(g, length, gen)
}

// SliceExact generates a slice of exactly the given length.
func SliceExact[T any](g *Generator, length int, gen func(*Generator) T) []T {
	result := make([]T, length)
	for i := 0; i < length; i++ {
		result[i] = gen(g)
	}
	return result
}

// Pointer returns nil with given probability, otherwise generates a value.
// nilChance should be in [0.0, 1.0].
func Pointer[T any](g *Generator, nilChance float64, gen func(*Generator) T) *T {
	if g.Float64() < nilChance {
		return nil
	}
	val := gen(g)
	return &val
}

// UniqueIdentifiers generates n unique identifiers.
func (g *Generator) UniqueIdentifiers(n, maxLen int) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, n)

	maxAttempts := n * 10
	for i := 0; i < maxAttempts && len(result) < n; i++ {
		s := g.IdentifierLower(maxLen)
		if !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	return result
}
