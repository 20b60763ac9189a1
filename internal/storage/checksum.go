package storage

// The log uses the CRC-32/CKSUM variant (the POSIX cksum polynomial without the
// trailing length): polynomial 0x04C11DB7, zero initial value, no bit
// reflection and a final xor of 0xFFFFFFFF. hash/crc32 only implements the
// reflected variants so the table is built here.
const cksumPoly = 0x04C11DB7

var cksumTable = makeCksumTable()

func makeCksumTable() *[256]uint32 {
	t := new([256]uint32)
	for i := range t {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ cksumPoly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}

func updateCksum(crc uint32, data []byte) uint32 {
	for _, b := range data {
		crc = cksumTable[byte(crc>>24)^b] ^ crc<<8
	}
	return crc
}

// Checksum returns the CRC-32/CKSUM of data
func Checksum(data []byte) uint32 {
	return updateCksum(0, data) ^ 0xFFFFFFFF
}

// ChecksumKV returns the checksum of key followed by value without
// allocating the concatenation
func ChecksumKV(key []byte, value []byte) uint32 {
	return updateCksum(updateCksum(0, key), value) ^ 0xFFFFFFFF
}
