// Package stack builds a new process's initial user stack: argv, envp and
// the auxiliary vector, laid out bottom-up exactly as a freshly exec'd ELF
// binary expects to find them.
package stack

import (
	"unsafe"

	"norn/kernel"
	"norn/kernel/uapi"
)

var errOutOfSpace = &kernel.Error{Module: "stack", Message: "stack region too small for argv/envp/auxv", Kind: kernel.InvalidRegion}

// BlobHandle identifies an opaque data blob registered with AddBlob. A
// handle-type auxv entry's value becomes the blob's address only once
// Finalize has placed it.
type BlobHandle int

type auxvEntry struct {
	typ    uapi.AuxvType
	handle BlobHandle
	isRef  bool
}

// Creator accumulates argv, envp, auxv entries and opaque blobs, then lays
// them out into the region [bottom, top) in a single Finalize call.
type Creator struct {
	top, bottom uintptr

	argv, envp []string
	blobs      [][]byte
	auxv       []auxvEntry
	auxvValue  map[int]uint64
}

// NewCreator returns a Creator that writes downward from top and refuses to
// write below bottom.
func NewCreator(bottom, top uintptr) *Creator {
	return &Creator{top: top, bottom: bottom, auxvValue: make(map[int]uint64)}
}

// SetArgv records the process arguments, in order.
func (c *Creator) SetArgv(argv []string) { c.argv = argv }

// SetEnvp records the environment strings, in order.
func (c *Creator) SetEnvp(envp []string) { c.envp = envp }

// AddBlob registers an opaque data blob (e.g. AT_RANDOM's 16 random bytes)
// and returns a handle a later AddHandleAuxv call can reference.
func (c *Creator) AddBlob(data []byte) BlobHandle {
	c.blobs = append(c.blobs, data)
	return BlobHandle(len(c.blobs) - 1)
}

// AddImmediateAuxv records an auxv entry whose value is the scalar itself
// (e.g. AT_PAGESZ, AT_ENTRY).
func (c *Creator) AddImmediateAuxv(t uapi.AuxvType, value uint64) {
	idx := len(c.auxv)
	c.auxv = append(c.auxv, auxvEntry{typ: t})
	c.auxvValue[idx] = value
}

// AddHandleAuxv records an auxv entry whose value is the address Finalize
// assigns to the referenced blob (e.g. AT_RANDOM).
func (c *Creator) AddHandleAuxv(t uapi.AuxvType, h BlobHandle) {
	c.auxv = append(c.auxv, auxvEntry{typ: t, handle: h, isRef: true})
}

func writeUint64(addr uintptr, v uint64) {
	*(*uint64)(unsafe.Pointer(addr)) = v
}

func writeBytes(addr uintptr, data []byte) {
	if len(data) == 0 {
		return
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(addr)), len(data)), data)
}

// Finalize writes argv, envp, auxv and every registered blob into
// [bottom, top) and returns the stack pointer to hand to the new thread.
// It follows the bottom-up construction spec.md §4.11 describes: the NULL
// endmark first, then blobs, then envp strings, then argv strings, all in
// reverse/descending order, then the fixed-size pointer-array region,
// padded so the returned SP is 16-byte aligned.
func (c *Creator) Finalize() (uintptr, *kernel.Error) {
	cur := c.top

	// 1. NULL endmark.
	cur -= 8
	writeUint64(cur, 0)

	// 2. Opaque data blobs, 16-byte aligned.
	blobAddr := make([]uintptr, len(c.blobs))
	for i, b := range c.blobs {
		cur -= uintptr(len(b))
		cur &^= 15
		if cur < c.bottom {
			return 0, errOutOfSpace
		}
		writeBytes(cur, b)
		blobAddr[i] = cur
	}

	// 3. envp strings, in reverse.
	envpAddr := make([]uintptr, len(c.envp))
	for i := len(c.envp) - 1; i >= 0; i-- {
		cur = writeCString(cur, c.envp[i])
		if cur < c.bottom {
			return 0, errOutOfSpace
		}
		envpAddr[i] = cur
	}

	// 4. argv strings, in reverse.
	argvAddr := make([]uintptr, len(c.argv))
	for i := len(c.argv) - 1; i >= 0; i-- {
		cur = writeCString(cur, c.argv[i])
		if cur < c.bottom {
			return 0, errOutOfSpace
		}
		argvAddr[i] = cur
	}

	// 5. Compute the fixed-size region and pad so the final SP is 16-byte
	// aligned.
	fixedSize := uintptr(len(c.auxv)+1)*16 + uintptr(len(c.envp)+1)*8 + uintptr(len(c.argv)+1)*8 + 8
	finalSP := (cur - fixedSize) &^ 15
	if finalSP < c.bottom || finalSP > cur {
		return 0, errOutOfSpace
	}

	// 6. Push argc, argv[], NULL, envp[], NULL, auxv[], AT_NULL.
	p := finalSP
	writeUint64(p, uint64(len(c.argv)))
	p += 8
	for _, a := range argvAddr {
		writeUint64(p, uint64(a))
		p += 8
	}
	writeUint64(p, 0)
	p += 8
	for _, a := range envpAddr {
		writeUint64(p, uint64(a))
		p += 8
	}
	writeUint64(p, 0)
	p += 8
	for i, e := range c.auxv {
		writeUint64(p, uint64(e.typ))
		p += 8
		if e.isRef {
			writeUint64(p, uint64(blobAddr[e.handle]))
		} else {
			writeUint64(p, c.auxvValue[i])
		}
		p += 8
	}
	writeUint64(p, uint64(uapi.AT_NULL))
	p += 8
	writeUint64(p, 0)
	p += 8

	return finalSP, nil
}

// writeCString writes s followed by a NUL terminator just below cur and
// returns the address it was written at.
func writeCString(cur uintptr, s string) uintptr {
	cur -= uintptr(len(s) + 1)
	writeBytes(cur, []byte(s))
	writeByte(cur+uintptr(len(s)), 0)
	return cur
}

func writeByte(addr uintptr, v byte) {
	*(*byte)(unsafe.Pointer(addr)) = v
}
