/*
Package compact implements containers that can be compacted into a single
contiguous block of memory and then moved, copied, written to a file or mapped
back in, all without any fix-up pass.

We implement:

1. Ptr, a relocatable pointer that is either Free (an absolute address of
allocator-owned storage), Compact (an offset relative to the pointer itself)
or Uninitialized.

2. Vec, Dict, Option, String and Opaque: containers built out of Ptrs.

3. Regions: standalone blobs holding one compacted root value, with a
checksummed header, loadable from bytes or mapped from a file.

# Technical Details

**Fixed and dynamic parts.**
Every value has a fixed part (the Go struct itself) and a dynamic part (the
storage its Ptrs refer to). Compacting a value writes its fixed part to a
destination slot and its dynamic part into a caller-provided block, turning
every Ptr into a Compact one. The layout is depth-first: a container's own
elements first, then the dynamic part of each element in order.

**Alignment.**
Fixed and dynamic parts are padded to multiples of 8 bytes, so a compacted
value placed at an 8-byte aligned address stays aligned everywhere inside.

**Allocators.**
Containers never allocate on the Go heap directly. Storage comes from an
Allocator registered under an AllocatorID; the ID is stored in the container,
which keeps fixed parts free of Go pointers. This is also why element types
must be plain data: allocator memory is not scanned by the garbage collector.

**Mutation.**
A compact container can still be modified. Writes that fit stay inside the
region; anything that needs more room moves into free storage, and the
container ("spilled") stops being compact. Operations that move relocatable
elements around spill the whole container first, since Compact Ptrs break
when copied bitwise.

**Consumption.**
Compacting consumes the source. Its free storage is released and it is left
as an empty placeholder, so nothing is ever owned twice.

**Composite values.**
User types with container fields implement Relocatable themselves, usually
by calling CompactField for each field in order:

	func (p *Person) CompactTo(dest, dynamic unsafe.Pointer) {
		d := (*Person)(dest)
		d.Age = p.Age
		c := compact.CursorAt(dynamic)
		compact.CompactField(&c, &p.Name, &d.Name)
		compact.CompactField(&c, &p.Tags, &d.Tags)
	}
*/
package compact
