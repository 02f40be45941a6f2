package fat

import "encoding/binary"

// table is the in-memory copy of the file allocation table. Every entry
// holds either 0 (free), the number of the next cluster, a bad cluster mark
// or an end of chain mark.
type table struct {
	fatType Type
	data    []byte
}

func newTable(fatType Type, data []byte) *table {
	return &table{
		fatType: fatType,
		data:    data,
	}
}

// eof is the value written to terminate a chain.
func (t *table) eof() uint32 {
	switch t.fatType {
	case FAT12:
		return 0x0FFF
	case FAT16:
		return 0xFFFF
	default:
		return 0x0FFFFFFF
	}
}

// bad is the mark of an unusable cluster. Everything above it ends a chain.
func (t *table) bad() uint32 {
	return t.eof() - 8
}

func (t *table) isEOF(value uint32) bool {
	return value > t.bad()
}

func (t *table) isBad(value uint32) bool {
	return value == t.bad()
}

// offset returns the byte offset and the byte width of the entry of cluster.
// FAT12 entries are one and a half bytes wide and share a byte with their
// neighbour.
func (t *table) offset(cluster uint32) (int, int) {
	switch t.fatType {
	case FAT12:
		return int(cluster + cluster/2), 2
	case FAT16:
		return int(cluster * 2), 2
	default:
		return int(cluster * 4), 4
	}
}

func (t *table) get(cluster uint32) uint32 {
	off, _ := t.offset(cluster)

	switch t.fatType {
	case FAT12:
		value := uint32(binary.LittleEndian.Uint16(t.data[off:]))
		if cluster%2 == 1 {
			return value >> 4
		}
		return value & 0x0FFF
	case FAT16:
		return uint32(binary.LittleEndian.Uint16(t.data[off:]))
	default:
		return binary.LittleEndian.Uint32(t.data[off:]) & 0x0FFFFFFF
	}
}

// set changes the entry of cluster and returns the changed byte range of
// the table.
func (t *table) set(cluster uint32, value uint32) (int, []byte) {
	off, width := t.offset(cluster)

	switch t.fatType {
	case FAT12:
		value &= 0x0FFF
		if cluster%2 == 1 {
			t.data[off] = t.data[off]&0x0F | byte(value<<4)
			t.data[off+1] = byte(value >> 4)
		} else {
			t.data[off] = byte(value)
			t.data[off+1] = t.data[off+1]&0xF0 | byte(value>>8)
		}
	case FAT16:
		binary.LittleEndian.PutUint16(t.data[off:], uint16(value))
	default:
		// The upper four bits are reserved and must be kept.
		old := binary.LittleEndian.Uint32(t.data[off:])
		binary.LittleEndian.PutUint32(t.data[off:], old&0xF0000000|value&0x0FFFFFFF)
	}

	return off, t.data[off : off+width]
}
