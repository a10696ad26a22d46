package boot

import "norn/kernel"

// RSDPDescriptor is the ACPI 1.0 root system descriptor pointer located via
// the boot Record's RSDP field. Only the shape needed to validate the table
// and locate the RSDT is kept; parsing the tables it points to (MADT, FADT,
// and especially the AML-encoded DSDT/SSDT) is not this kernel's job.
type RSDPDescriptor struct {
	Signature [8]byte
	Checksum  uint8
	OEMID     [6]byte
	Revision  uint8
	RSDTAddr  uint32
}

// SDTHeader is the common header shared by every ACPI table reachable from
// the RSDT/XSDT.
type SDTHeader struct {
	Signature       [4]byte
	Length          uint32
	Revision        uint8
	Checksum        uint8
	OEMID           [6]byte
	OEMTableID      [8]byte
	OEMRevision     uint32
	CreatorID       uint32
	CreatorRevision uint32
}

var errInvalidTable = &kernel.Error{Module: "boot", Message: "ACPI table signature or checksum mismatch", Kind: kernel.InvalidTable}

// ValidateChecksum verifies that the bytes of an ACPI table sum to zero
// modulo 256, the checksum rule shared by the RSDP and every SDTHeader-led
// table.
func ValidateChecksum(table []byte) *kernel.Error {
	var sum uint8
	for _, b := range table {
		sum += b
	}
	if sum != 0 {
		return errInvalidTable
	}
	return nil
}

// ValidateRSDPSignature checks the fixed "RSD PTR " signature required of
// every RSDPDescriptor.
func ValidateRSDPSignature(d *RSDPDescriptor) *kernel.Error {
	want := [8]byte{'R', 'S', 'D', ' ', 'P', 'T', 'R', ' '}
	if d.Signature != want {
		return errInvalidTable
	}
	return nil
}
