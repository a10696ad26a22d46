package boot

// ImageSection describes one of the kernel image's loaded segments, as
// delimited by the linker script rather than discovered by parsing ELF
// section headers at runtime: a UEFI loader hands the kernel a flat physical
// image with no embedded section metadata, so the boundaries the kernel
// needs (where .text ends and .rodata begins, and so on) have to come from
// symbols the linker script itself defines.
type ImageSection struct {
	Name       string
	Start, End uintptr
	Writable   bool
	Executable bool
}

// The linker script is expected to emit these symbols at the start/end of
// each of the kernel's loaded segments; the arch-specific stubs below
// (image_amd64.go) resolve them to addresses.
var (
	kernelTextStartFn = KernelTextStart
	kernelTextEndFn   = KernelTextEnd
	kernelRodataEndFn = KernelRodataEnd
	kernelDataEndFn   = KernelDataEnd
	kernelBSSEndFn    = KernelBSSEnd
)

// KernelSections returns the kernel image's loaded segments in ascending
// address order, each tagged with the protection flags the vmm package
// should map it with.
func KernelSections() []ImageSection {
	textStart := kernelTextStartFn()
	textEnd := kernelTextEndFn()
	rodataEnd := kernelRodataEndFn()
	dataEnd := kernelDataEndFn()
	bssEnd := kernelBSSEndFn()

	return []ImageSection{
		{Name: ".text", Start: textStart, End: textEnd, Writable: false, Executable: true},
		{Name: ".rodata", Start: textEnd, End: rodataEnd, Writable: false, Executable: false},
		{Name: ".data", Start: rodataEnd, End: dataEnd, Writable: true, Executable: false},
		{Name: ".bss", Start: dataEnd, End: bssEnd, Writable: true, Executable: false},
	}
}
