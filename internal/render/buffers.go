package render

import "sync"

// Row buffers are pooled by width. Renders at one device size reuse the same
// class, so a pass after the first allocates almost nothing per row.
var rowBuffers sync.Map // width -> *sync.Pool

func rowPool(width int) *sync.Pool {
	if p, ok := rowBuffers.Load(width); ok {
		return p.(*sync.Pool)
	}
	p, _ := rowBuffers.LoadOrStore(width, &sync.Pool{
		New: func() any {
			buf := make([]uint32, width)
			return &buf
		},
	})
	return p.(*sync.Pool)
}

// acquireRow returns a buffer of exactly width values. Its contents are
// unspecified.
func acquireRow(width int) []uint32 {
	return *rowPool(width).Get().(*[]uint32)
}

// releaseRow returns buf to its pool. buf must not be used afterwards.
func releaseRow(buf []uint32) {
	if cap(buf) == 0 {
		return
	}
	buf = buf[:cap(buf)]
	rowPool(len(buf)).Put(&buf)
}
