// Package compressor shrinks the parser's sparse action and goto
// matrices for serialization: identical rows collapse into unique
// rows, and the unique rows overlay into one array by row
// displacement. Lookup stays O(1) and Expand restores the original
// matrix bit for bit.
package compressor

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Matrix is an uncompressed row-major table.
type Matrix struct {
	Entries  []int32
	RowCount int
	ColCount int
}

func NewMatrix(entries []int32, colCount int) (*Matrix, error) {
	if colCount <= 0 {
		return nil, fmt.Errorf("column count must be >=1")
	}
	if len(entries)%colCount != 0 {
		return nil, fmt.Errorf("entries length %v is not a multiple of the column count %v", len(entries), colCount)
	}
	return &Matrix{
		Entries:  entries,
		RowCount: len(entries) / colCount,
		ColCount: colCount,
	}, nil
}

// boundNil marks a displacement-array slot no row owns.
const boundNil = int32(-1)

// Compressed is the unique-rows + row-displacement form of a Matrix.
type Compressed struct {
	RowCount int
	ColCount int

	// Empty is the value of cells the displacement array doesn't
	// store.
	Empty int32

	// RowMap maps an original row to its unique row.
	RowMap []int32

	// Displacement maps a unique row to its offset in Entries.
	Displacement []int32

	// Entries and Bounds are parallel: Bounds[i] names the unique row
	// owning Entries[i], or boundNil.
	Entries []int32
	Bounds  []int32
}

// Compress builds the compressed form. The result is deterministic:
// unique rows are numbered in first-occurrence order and placed
// densest first with ties broken by row number.
func Compress(m *Matrix, empty int32) *Compressed {
	c := &Compressed{
		RowCount: m.RowCount,
		ColCount: m.ColCount,
		Empty:    empty,
		RowMap:   make([]int32, m.RowCount),
	}

	var unique [][]int32
	rowByKey := map[string]int32{}
	for row := 0; row < m.RowCount; row++ {
		entries := m.Entries[row*m.ColCount : (row+1)*m.ColCount]
		key := rowKey(entries)
		num, ok := rowByKey[key]
		if !ok {
			num = int32(len(unique))
			rowByKey[key] = num
			unique = append(unique, entries)
		}
		c.RowMap[row] = num
	}

	type rowInfo struct {
		num      int32
		nonEmpty []int32
	}
	infos := make([]*rowInfo, len(unique))
	for i, entries := range unique {
		info := &rowInfo{
			num: int32(i),
		}
		for col, v := range entries {
			if v != empty {
				info.nonEmpty = append(info.nonEmpty, int32(col))
			}
		}
		infos[i] = info
	}
	sort.SliceStable(infos, func(i, j int) bool {
		return len(infos[i].nonEmpty) > len(infos[j].nonEmpty)
	})

	c.Displacement = make([]int32, len(unique))
	for _, info := range infos {
		disp := int32(0)
	PLACEMENT:
		for {
			for _, col := range info.nonEmpty {
				pos := disp + col
				c.grow(int(pos) + 1)
				if c.Bounds[pos] != boundNil {
					disp++
					continue PLACEMENT
				}
			}
			break
		}
		for _, col := range info.nonEmpty {
			pos := disp + col
			c.Entries[pos] = unique[info.num][col]
			c.Bounds[pos] = info.num
		}
		c.Displacement[info.num] = disp
	}

	return c
}

func (c *Compressed) grow(n int) {
	for len(c.Entries) < n {
		c.Entries = append(c.Entries, c.Empty)
		c.Bounds = append(c.Bounds, boundNil)
	}
}

// Lookup reads one cell.
func (c *Compressed) Lookup(row, col int) (int32, error) {
	if row < 0 || row >= c.RowCount || col < 0 || col >= c.ColCount {
		return 0, fmt.Errorf("indexes are out of range: [%v, %v]", row, col)
	}
	u := c.RowMap[row]
	pos := c.Displacement[u] + int32(col)
	if int(pos) >= len(c.Bounds) || c.Bounds[pos] != u {
		return c.Empty, nil
	}
	return c.Entries[pos], nil
}

// Expand restores the original matrix.
func (c *Compressed) Expand() *Matrix {
	entries := make([]int32, c.RowCount*c.ColCount)
	for row := 0; row < c.RowCount; row++ {
		for col := 0; col < c.ColCount; col++ {
			v, _ := c.Lookup(row, col)
			entries[row*c.ColCount+col] = v
		}
	}
	return &Matrix{
		Entries:  entries,
		RowCount: c.RowCount,
		ColCount: c.ColCount,
	}
}

func rowKey(entries []int32) string {
	buf := make([]byte, 0, len(entries)*binary.MaxVarintLen32)
	tmp := make([]byte, binary.MaxVarintLen64)
	for _, v := range entries {
		n := binary.PutVarint(tmp, int64(v))
		buf = append(buf, tmp[:n]...)
	}
	return string(buf)
}
