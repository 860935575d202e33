package mic

// SelectB returns the value driven onto the B bus by sel. Selectors above
// B_OPC drive 0.
func SelectB(regs *Registers, sel BusB) (value uint32) {
	switch sel {
	case B_MDR:
		value = regs[REG_MDR]
	case B_PC:
		value = regs[REG_PC]
	case B_MBR:
		value = regs[REG_MBR]
		if value&0x80 != 0 {
			value |= 0xffffff00
		}
	case B_MBRU:
		value = regs[REG_MBR]
	case B_SP:
		value = regs[REG_SP]
	case B_LV:
		value = regs[REG_LV]
	case B_CPP:
		value = regs[REG_CPP]
	case B_TOS:
		value = regs[REG_TOS]
	case B_OPC:
		value = regs[REG_OPC]
	default:
		value = 0
	}

	return
}

// WriteC stores value into every register selected by mask.
func WriteC(regs *Registers, mask CMask, value uint32) {
	for bit, reg := range cTargets {
		if mask&(1<<bit) != 0 {
			regs[reg] = value
		}
	}
}

// Targets returns the registers selected by the mask, in bit order.
func (mask CMask) Targets() (regs []Register) {
	for bit, reg := range cTargets {
		if mask&(1<<bit) != 0 {
			regs = append(regs, reg)
		}
	}
	return
}
