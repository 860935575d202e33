package mic

// NextAddress composes the micro-address of the following cycle.
//
// Starting from next, each enabled contribution is ORed in: FlagN and FlagZ
// into bit 8, MBR into the low bits. Contributions never override each
// other, so an address bit set by next stays set.
func NextAddress(next uint16, jump JumpBits, n, z bool, mbr uint32) (mpc uint16) {
	mpc = next

	if jump&JUMP_N != 0 && n {
		mpc |= 1 << 8
	}
	if jump&JUMP_Z != 0 && z {
		mpc |= 1 << 8
	}
	if jump&JUMP_MBR != 0 {
		mpc |= uint16(mbr)
	}

	mpc &= MPC_MASK
	return
}
