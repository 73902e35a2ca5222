// Package elfmeta provides the read-only metadata view of an object file that the
// mitigation classifier consumes.
//
// A parsed file is represented as an Object, which is exactly one of two variants:
//
//   - *ELF: an ELF object, carrying the Metadata extracted from it
//   - *Unsupported: any other recognized object format (Mach-O, PE, ar archive)
//
// Only the ELF variant receives mitigation analysis. Unsupported objects carry just
// enough identifying information for the caller to report them.
//
// # Usage
//
//	f, err := elf.NewFile(r)
//	if err != nil {
//	    return err
//	}
//	md, err := elfmeta.FromELF(f)
//	if err != nil {
//	    return err
//	}
//	profile := checksec.Classify(md)
//
// # Limitations
//
// - Dynamic entries are read from PT_DYNAMIC (falling back to .dynamic) and stop at DT_NULL
// - The dynamic string table is taken verbatim; names are not demangled or versioned
package elfmeta
