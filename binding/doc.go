// Package binding exposes stores, cursors and batches through integer
// handles, the shape a foreign caller sees.
//
// All three resource types share one generational handle table, so a handle
// of one type never resolves as another and a released handle never resolves
// again. Operations on an absent handle report HandleClosed.
//
// Closing a store handle also releases the handles of its cursors. A failed
// Write releases the store handle. Batches are ownerless and survive both.
//
//	reg := binding.NewRegistry(nil)
//	defer reg.Close()
//
//	db, _ := reg.StoreOpen(path)
//	b, _ := reg.BatchCreate()
//	_ = reg.BatchPut(b, []byte("a"), []byte("1"))
//	_ = reg.Write(db, b)
//	_ = reg.BatchFree(b)
package binding
