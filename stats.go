package rhmap

type Stats struct {
	Size       int
	Capacity   int
	MaxProbe   int
	LoadFactor float32

	// Probe distances of the stored entries.
	MaxDistance  int
	MeanDistance float32
}

func (m *Map[V]) Stats() Stats {
	stats := Stats{
		Size:       int(m.size),
		Capacity:   int(m.capacity),
		MaxProbe:   int(m.maxProbe),
		LoadFactor: m.LoadFactor(),
	}

	var total int
	for i := range m.slots {
		s := &m.slots[i]
		if !s.used {
			continue
		}

		total += int(s.dist)
		stats.MaxDistance = max(stats.MaxDistance, int(s.dist))
	}

	if m.size > 0 {
		stats.MeanDistance = float32(total) / float32(m.size)
	}

	return stats
}

// LoadFactor returns the ratio of stored entries to slots, without walking
// the table.
func (m *Map[V]) LoadFactor() float32 {
	if m.capacity == 0 {
		return 0
	}

	return float32(m.size) / float32(m.capacity)
}
