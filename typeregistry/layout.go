package typeregistry

// computeLayout implements the struct layout algorithm from spec.md §4.2
// verbatim: fields are laid out in declaration order, each field's offset
// is the smallest offset >= the running cursor satisfying the field's
// alignment, the struct's alignment is the max of its fields' alignments
// (or 1 if empty), and the struct's size is the cursor after the last
// field rounded up to the struct's alignment.
func computeLayout(fieldTypes []*Type) (size, align uint32, offsets []uint32) {
	offsets = make([]uint32, len(fieldTypes))
	align = 1
	var cursor uint32

	for i, ft := range fieldTypes {
		fsize, falign := FieldSizeAlign(ft)
		if falign == 0 {
			falign = 1
		}
		offset := alignUp(cursor, falign)
		offsets[i] = offset
		cursor = offset + fsize
		if falign > align {
			align = falign
		}
	}

	size = alignUp(cursor, align)
	return size, align, offsets
}

// alignUp rounds v up to the nearest multiple of align. align must be a
// power of two, which every size/alignment value in this registry is
// (primitive widths and pointer size all are).
func alignUp(v, align uint32) uint32 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}
