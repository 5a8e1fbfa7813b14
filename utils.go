package rhmap

const (
	initCapacity = 16
	initMaxProbe = 4
)

// nextCapacity doubles c, handling a zero capacity.
func nextCapacity(c uintptr) uintptr {
	if c == 0 {
		return 1
	}

	return c * 2
}

func prevCapacity(c uintptr) uintptr {
	return c / 2
}

// shrinkSize is the size below which a table of capacity c is shrunk.
// It's 3/4 of the halved capacity, not of c.
func shrinkSize(c uintptr) uintptr {
	return 3 * prevCapacity(c) / 4
}
