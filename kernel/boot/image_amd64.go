package boot

// These functions are implemented in assembly and simply return the address
// of a linker-defined symbol marking the boundary named. The linker script
// is responsible for placing __text_start, __text_end, __rodata_end,
// __data_end and __bss_end at the appropriate points in the kernel image.

// KernelTextStart returns the virtual address where the kernel's .text
// section begins.
func KernelTextStart() uintptr

// KernelTextEnd returns the virtual address where the kernel's .text
// section ends and .rodata begins.
func KernelTextEnd() uintptr

// KernelRodataEnd returns the virtual address where the kernel's .rodata
// section ends and .data begins.
func KernelRodataEnd() uintptr

// KernelDataEnd returns the virtual address where the kernel's .data
// section ends and .bss begins.
func KernelDataEnd() uintptr

// KernelBSSEnd returns the virtual address marking the end of the kernel
// image, after .bss.
func KernelBSSEnd() uintptr
