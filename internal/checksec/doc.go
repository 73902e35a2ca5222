// Package checksec classifies the binary hardening mitigations of an ELF file.
//
// Every rule is a pure function of an elfmeta.Metadata view; Classify composes
// them into a SecurityProfile. No rule performs I/O or can fail.
//
// # Rules
//
//   - RELRO: PT_GNU_RELRO plus any BIND_NOW signal is Full, PT_GNU_RELRO alone is Partial
//   - NX: decided by the first PT_GNU_STACK; missing PT_GNU_STACK means NX disabled
//   - RWX: writable segments that are R+X, or any writable segment when NX is disabled
//   - PIE: by file type, with DF_1_PIE separating PIE executables from shared libraries
//   - Canary and FORTIFY: literal matches in the dynamic string table
//
// # Limitations
//
// Canary and FORTIFY detection only see the dynamic string table. Static or
// stripped binaries report false for both; there is no "unknown" state.
package checksec
