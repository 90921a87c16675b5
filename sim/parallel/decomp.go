package parallel

// Size returns the number of items owned by rank when total items are split
// over nprocs ranks. The split is balanced; the remainder goes to the
// highest ranks.
func Size(total, nprocs, rank int) int {
	return (total + rank) / nprocs
}

// Offset returns the global index of the first item owned by rank.
func Offset(total, nprocs, rank int) int {
	offset := 0
	for r := 0; r < rank; r++ {
		offset += Size(total, nprocs, r)
	}
	return offset
}

// LocalSize is Size for this communicator's rank.
func (c *Comm) LocalSize(total int) int {
	return Size(total, c.world.size, c.rank)
}

// LocalOffset is Offset for this communicator's rank.
func (c *Comm) LocalOffset(total int) int {
	return Offset(total, c.world.size, c.rank)
}
