package uapi

// AuxvType identifies an entry in the auxiliary vector passed to a new
// process on its initial stack, following the standard ELF auxv table.
type AuxvType uint64

const (
	// AT_NULL terminates the auxv array.
	AT_NULL AuxvType = 0
	// AT_PAGESZ carries the system page size.
	AT_PAGESZ AuxvType = 6
	// AT_ENTRY carries the program's entry point address.
	AT_ENTRY AuxvType = 9
	// AT_RANDOM carries the address of 16 bytes of process-specific random
	// data; its value is a handle into the stack's opaque data blobs rather
	// than an immediate scalar.
	AT_RANDOM AuxvType = 25
)
