package tmx

const (
	FlagFlipHorizontal uint32 = 0x80000000
	FlagFlipVertical   uint32 = 0x40000000
	FlagFlipDiagonal   uint32 = 0x20000000
	FlagRotateHex120   uint32 = 0x10000000

	flagMask = FlagFlipHorizontal | FlagFlipVertical | FlagFlipDiagonal | FlagRotateHex120
)

type Flip struct {
	Horizontal bool
	Vertical   bool
	Diagonal   bool
}

func (f Flip) Any() bool {
	return f.Horizontal || f.Vertical || f.Diagonal
}

// DecodeGID splits a raw tile value into its global id and flip flags.
func DecodeGID(raw uint32) (uint32, Flip) {
	f := Flip{
		Horizontal: raw&FlagFlipHorizontal != 0,
		Vertical:   raw&FlagFlipVertical != 0,
		Diagonal:   raw&FlagFlipDiagonal != 0,
	}
	return raw &^ flagMask, f
}

// EncodeGID is the inverse of DecodeGID.
func EncodeGID(gid uint32, f Flip) uint32 {
	gid &^= flagMask
	if f.Horizontal {
		gid |= FlagFlipHorizontal
	}
	if f.Vertical {
		gid |= FlagFlipVertical
	}
	if f.Diagonal {
		gid |= FlagFlipDiagonal
	}
	return gid
}
