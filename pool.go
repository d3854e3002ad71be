package skiff

import (
	"sync"
)

// BoolMask is a pooled boolean slice for group pass/fail masks.
// Call Release() when done to return it to the pool.
type BoolMask struct {
	Data []bool
	pool *sync.Pool
}

// Release returns the mask to the pool for reuse
func (m *BoolMask) Release() {
	if m.pool != nil && m.Data != nil {
		clear(m.Data)
		m.pool.Put(m)
	}
}

// Int64Slice is a pooled int64 slice used as scratch space for composite
// group codes.
type Int64Slice struct {
	Data []int64
	pool *sync.Pool
}

// Release returns the slice to the pool for reuse
func (s *Int64Slice) Release() {
	if s.pool != nil && s.Data != nil {
		s.pool.Put(s)
	}
}

// Pool sizes use power-of-2 buckets
var (
	boolPools  [32]*sync.Pool // pools for sizes 2^0 to 2^31
	int64Pools [32]*sync.Pool
	poolInit   sync.Once
)

func initPools() {
	poolInit.Do(func() {
		for i := range boolPools {
			size := 1 << i
			boolPools[i] = &sync.Pool{
				New: func() interface{} {
					return &BoolMask{Data: make([]bool, size)}
				},
			}
			int64Pools[i] = &sync.Pool{
				New: func() interface{} {
					return &Int64Slice{Data: make([]int64, size)}
				},
			}
		}
	})
}

// getBucket returns the pool bucket index for a given size
func getBucket(size int) int {
	if size <= 0 {
		return 0
	}
	// smallest power of 2 >= size
	bucket := 0
	n := size - 1
	for n > 0 {
		n >>= 1
		bucket++
	}
	if bucket >= 32 {
		bucket = 31
	}
	return bucket
}

// getBoolMask gets a zeroed bool mask of length size from the pool
func getBoolMask(size int) *BoolMask {
	initPools()
	bucket := getBucket(size)
	pool := boolPools[bucket]
	mask := pool.Get().(*BoolMask)
	mask.pool = pool
	if size > cap(mask.Data) {
		mask.Data = make([]bool, size)
	}
	mask.Data = mask.Data[:size]
	return mask
}

// getInt64Slice gets an int64 slice of length size from the pool.
// The contents are not cleared.
func getInt64Slice(size int) *Int64Slice {
	initPools()
	bucket := getBucket(size)
	pool := int64Pools[bucket]
	slice := pool.Get().(*Int64Slice)
	slice.pool = pool
	if size > cap(slice.Data) {
		slice.Data = make([]int64, size)
	}
	slice.Data = slice.Data[:size]
	return slice
}
