package ecs

// DirectoryStats is a snapshot of allocator and table occupancy.
type DirectoryStats struct {
	LiveEntities int
	FreeSlots    int
	RetiredSlots int
	Capacity     int
	MinDeleted   int
	Sentinel     string
	Tables       []TableStats
}

// TableStats reports how many records one component table holds.
type TableStats struct {
	Name  string
	Count int
}

// CollectStats gathers a snapshot of the directory.
func (d *Directory) CollectStats() *DirectoryStats {
	slots := d.Allocator()
	stats := &DirectoryStats{
		LiveEntities: slots.Live(),
		FreeSlots:    slots.Free(),
		RetiredSlots: slots.Retired(),
		Capacity:     slots.Cap(),
		MinDeleted:   slots.MinDeleted(),
		Sentinel:     slots.Sentinel().String(),
		Tables:       make([]TableStats, 0, len(d.tables)),
	}
	for _, table := range d.tables {
		stats.Tables = append(stats.Tables, TableStats{
			Name:  table.Name(),
			Count: table.Len(),
		})
	}
	return stats
}
