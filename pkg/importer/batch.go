package importer

// PartitionItems splits items into contiguous batches of at most maxSize,
// preserving order. The last batch may be smaller. Every item appears in
// exactly one batch; empty input yields no batches.
func PartitionItems(items []WriteItem, maxSize int) [][]WriteItem {
	if len(items) == 0 || maxSize <= 0 {
		return nil
	}

	batches := make([][]WriteItem, 0, (len(items)+maxSize-1)/maxSize)
	for start := 0; start < len(items); start += maxSize {
		end := start + maxSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
