package kalloc

// Reset returns Allocator to its uninitialized state.
var Reset = reset
