// Package mic implements the datapath and micro-assembler of a 36-bit
// microprogrammed stack machine.
//
// The datapath consists of ten 32-bit registers (MAR, MDR, PC, MBR, SP, LV,
// CPP, TOS, OPC, H), a B bus feeding an ALU whose other input is always H, a
// shifter, a C bus that writes back into any subset of the registers, a
// byte-addressable main memory and a jump unit that composes the next
// micro-address. Every cycle is sequenced by one microinstruction read from a
// 512-entry control store.
//
// The assembler turns a MAL-like microprogram source into a control store,
// supporting labels, equates, macros and compile-time expression evaluation.
package mic
