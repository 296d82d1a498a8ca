//go:build wasip1

// Package abi manages the guest side of the fuzzbridge memory protocol.
//
// Values cross the boundary as a packed i64: pointer in the high 32 bits,
// length in the low 32 bits. The host writes host function responses into
// memory obtained from the allocate export; the guest frees them with
// DeallocatePacked once decoded. Strings returned from exports such as name()
// stay pinned until Unpin or FreeAllTracked.
package abi

import (
	"fmt"
	"sync"
	"unsafe"
)

// PtrHighBits is the shift of the pointer half of a packed value.
const PtrHighBits = 32

// DefaultMaxTotalAllocations bounds the memory tracked by the allocator.
const DefaultMaxTotalAllocations = 64 * 1024 * 1024

var memoryManager = struct {
	ptrs           map[uint32][]byte // ptr -> slice reference, keeps it from the GC
	pinned         map[string]uint64 // pinned string results by content
	limit          int
	totalAllocated int
	sync.Mutex
}{
	ptrs:   make(map[uint32][]byte),
	pinned: make(map[string]uint64),
	limit:  DefaultMaxTotalAllocations,
}

// Option configures the allocator.
type Option func(*allocConfig)

type allocConfig struct {
	limit int
}

// WithMaxTotalAllocations caps the bytes tracked at once. Non-positive
// limits are ignored.
func WithMaxTotalAllocations(limit int) Option {
	return func(c *allocConfig) {
		if limit > 0 {
			c.limit = limit
		}
	}
}

// Configure applies allocator options.
func Configure(opts ...Option) {
	memoryManager.Lock()
	defer memoryManager.Unlock()
	cfg := allocConfig{limit: memoryManager.limit}
	for _, opt := range opts {
		opt(&cfg)
	}
	memoryManager.limit = cfg.limit
}

// Stats returns the number of tracked allocations and their total size.
func Stats() (count, bytes int) {
	memoryManager.Lock()
	defer memoryManager.Unlock()
	return len(memoryManager.ptrs), memoryManager.totalAllocated
}

// allocate is called by the host to place a response in guest memory.
//
//go:wasmexport allocate
func allocate(size uint32) uint32 {
	if size == 0 {
		return 0
	}

	memoryManager.Lock()
	defer memoryManager.Unlock()

	if memoryManager.totalAllocated+int(size) > memoryManager.limit {
		panic(fmt.Sprintf("abi: allocation limit exceeded (requested: %d bytes, current: %d bytes, limit: %d bytes)",
			size, memoryManager.totalAllocated, memoryManager.limit))
	}

	buf := make([]byte, size)
	//nolint:gosec // G103: linear memory offsets are 32-bit
	ptr := uint32(uintptr(unsafe.Pointer(&buf[0])))
	memoryManager.ptrs[ptr] = buf
	memoryManager.totalAllocated += int(size)
	return ptr
}

// deallocate releases a tracked allocation. Unknown pointers are ignored.
//
//go:wasmexport deallocate
func deallocate(ptr uint32, _ uint32) {
	memoryManager.Lock()
	defer memoryManager.Unlock()
	release(ptr)
}

func release(ptr uint32) {
	buf, ok := memoryManager.ptrs[ptr]
	if !ok {
		return
	}
	delete(memoryManager.ptrs, ptr)
	memoryManager.totalAllocated -= len(buf)
	if memoryManager.totalAllocated < 0 {
		memoryManager.totalAllocated = 0
	}
}

// FreeAllTracked drops every tracked allocation and pinned string.
func FreeAllTracked() {
	memoryManager.Lock()
	defer memoryManager.Unlock()
	clear(memoryManager.ptrs)
	clear(memoryManager.pinned)
	memoryManager.totalAllocated = 0
}

// PtrFromBytes copies data into tracked memory and returns it packed.
func PtrFromBytes(data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}
	size := uint32(len(data)) //nolint:gosec // G115: guest payloads are far below 4 GiB
	ptr := allocate(size)
	copyToMemory(ptr, data)
	return PackPtrLen(ptr, size)
}

// BytesFromPtr returns a copy of the memory a packed value points to.
func BytesFromPtr(packed uint64) []byte {
	ptr, length := UnpackPtrLen(packed)
	if ptr == 0 || length == 0 {
		return nil
	}
	return readFromMemory(ptr, length)
}

// DeallocatePacked frees the memory of a packed value.
func DeallocatePacked(packed uint64) {
	ptr, length := UnpackPtrLen(packed)
	if ptr != 0 && length > 0 {
		deallocate(ptr, length)
	}
}

// String returns s packed for an export's string result. The memory stays
// pinned, and repeated calls with the same s return the same value.
func String(s string) uint64 {
	if s == "" {
		return 0
	}
	memoryManager.Lock()
	packed, ok := memoryManager.pinned[s]
	memoryManager.Unlock()
	if ok {
		return packed
	}

	packed = PtrFromBytes([]byte(s))
	memoryManager.Lock()
	memoryManager.pinned[s] = packed
	memoryManager.Unlock()
	return packed
}

// Unpin frees a string pinned by String.
func Unpin(s string) {
	memoryManager.Lock()
	defer memoryManager.Unlock()
	packed, ok := memoryManager.pinned[s]
	if !ok {
		return
	}
	delete(memoryManager.pinned, s)
	ptr, _ := UnpackPtrLen(packed)
	release(ptr)
}

// PackPtrLen packs a pointer and length. It panics on a null pointer with a
// non-zero length.
func PackPtrLen(ptr, length uint32) uint64 {
	if ptr == 0 && length > 0 {
		panic(fmt.Sprintf("abi: invalid pack - null pointer with length %d", length))
	}
	return (uint64(ptr) << PtrHighBits) | uint64(length)
}

// UnpackPtrLen reverses PackPtrLen.
func UnpackPtrLen(packed uint64) (ptr, length uint32) {
	ptr = uint32(packed >> PtrHighBits)
	length = uint32(packed) //nolint:gosec // G115: low half of the packed value
	if ptr == 0 && length > 0 {
		panic(fmt.Sprintf("abi: invalid unpack - null pointer with length %d", length))
	}
	return ptr, length
}

func copyToMemory(ptr uint32, data []byte) {
	//nolint:gosec // G103: linear memory access
	dest := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), len(data))
	copy(dest, data)
}

func readFromMemory(ptr uint32, length uint32) []byte {
	//nolint:gosec // G103: linear memory access
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), length)
	data := make([]byte, length)
	copy(data, src)
	return data
}
