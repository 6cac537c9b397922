package encodings

// BytesToBits converts a byte slice into a bit slice. The bits of each
// byte are emitted most significant bit first so the bit position 0 is
// the bit 7 of the byte 0.
func BytesToBits(data []byte) []bool {
	bits := make([]bool, len(data)*8)
	for idx, b := range data {
		for bit := 0; bit < 8; bit++ {
			if b&(0x80>>uint(bit)) != 0 {
				bits[idx*8+bit] = true
			}
		}
	}

	return bits
}

// BitsToBytes packs a bit slice back into bytes using the
// BytesToBits bit order. A partial trailing byte is zero padded.
func BitsToBytes(bits []bool) []byte {
	size := (len(bits) + 7) / 8
	result := make([]byte, size)
	for idx, bit := range bits {
		if bit {
			result[idx/8] |= 0x80 >> uint(idx%8)
		}
	}

	return result
}
