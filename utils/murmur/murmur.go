// Package murmur implements the 32 bit MurmurHash2 variant used to derive
// short content identifiers (style ids, hash classes, token keys).
//
// The hash works on UTF-16 code units truncated to their low byte so ids
// computed here match ids produced by browser side tooling for the same
// strings, which matters when server markup is hydrated.
package murmur

import (
	"strconv"
	"unicode/utf16"
)

const m = 0x5bd1e995

// Sum32 returns raw hash value of s.
func Sum32(s string) uint32 {
	units := utf16.Encode([]rune(s))

	var h uint32
	i, n := 0, len(units)
	for ; n >= 4; i, n = i+4, n-4 {
		k := uint32(units[i]&0xff) |
			uint32(units[i+1]&0xff)<<8 |
			uint32(units[i+2]&0xff)<<16 |
			uint32(units[i+3]&0xff)<<24
		k *= m
		k ^= k >> 24
		h = (k * m) ^ (h * m)
	}

	switch n {
	case 3:
		h ^= uint32(units[i+2]&0xff) << 16
		fallthrough
	case 2:
		h ^= uint32(units[i+1]&0xff) << 8
		fallthrough
	case 1:
		h ^= uint32(units[i] & 0xff)
		h *= m
	}

	h ^= h >> 13
	h *= m
	h ^= h >> 15
	return h
}

// Hash returns base36 representation of the hash of s.
func Hash(s string) string {
	return strconv.FormatUint(uint64(Sum32(s)), 36)
}
