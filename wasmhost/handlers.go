package wasmhost

// Import handlers. Parameters arrive flattened on the stack in signature
// order; the status is written back by invoke.

func storeOpen(h *Host, c *call, stack []uint64) error {
	path, err := h.resolve(c, u32(stack[0]), u32(stack[1]))
	if err != nil {
		return err
	}
	sh, err := h.reg.StoreOpen(path)
	if err != nil {
		return err
	}
	if err := writeHandle(c, u32(stack[2]), sh); err != nil {
		_ = h.reg.StoreClose(sh)
		return err
	}
	return nil
}

func storeClose(h *Host, _ *call, stack []uint64) error {
	return h.reg.StoreClose(handle(stack[0]))
}

func storeGet(h *Host, c *call, stack []uint64) error {
	key, err := readBytes(c, u32(stack[1]), u32(stack[2]))
	if err != nil {
		return err
	}
	v, err := h.reg.Get(handle(stack[0]), key)
	if err != nil {
		return err
	}
	return writeBytes(c, u32(stack[3]), v)
}

func storePut(h *Host, c *call, stack []uint64) error {
	key, err := readBytes(c, u32(stack[1]), u32(stack[2]))
	if err != nil {
		return err
	}
	value, err := readBytes(c, u32(stack[3]), u32(stack[4]))
	if err != nil {
		return err
	}
	return h.reg.Put(handle(stack[0]), key, value)
}

func storeDelete(h *Host, c *call, stack []uint64) error {
	key, err := readBytes(c, u32(stack[1]), u32(stack[2]))
	if err != nil {
		return err
	}
	return h.reg.Delete(handle(stack[0]), key)
}

func storeExists(h *Host, c *call, stack []uint64) error {
	key, err := readBytes(c, u32(stack[1]), u32(stack[2]))
	if err != nil {
		return err
	}
	ok, err := h.reg.Exists(handle(stack[0]), key)
	if err != nil {
		return err
	}
	return writeBool(c, u32(stack[3]), ok)
}

func storeNewCursor(h *Host, c *call, stack []uint64) error {
	ch, err := h.reg.NewCursor(handle(stack[0]))
	if err != nil {
		return err
	}
	if err := writeHandle(c, u32(stack[1]), ch); err != nil {
		_ = h.reg.CursorClose(ch)
		return err
	}
	return nil
}

func storeWrite(h *Host, _ *call, stack []uint64) error {
	return h.reg.Write(handle(stack[0]), handle(stack[1]))
}

func storeDestroy(h *Host, c *call, stack []uint64) error {
	path, err := h.resolve(c, u32(stack[0]), u32(stack[1]))
	if err != nil {
		return err
	}
	return h.reg.Destroy(path)
}

func cursorClose(h *Host, _ *call, stack []uint64) error {
	return h.reg.CursorClose(handle(stack[0]))
}

func cursorSeekToFirst(h *Host, _ *call, stack []uint64) error {
	return h.reg.SeekToFirst(handle(stack[0]))
}

func cursorSeek(h *Host, c *call, stack []uint64) error {
	key, err := readBytes(c, u32(stack[1]), u32(stack[2]))
	if err != nil {
		return err
	}
	return h.reg.Seek(handle(stack[0]), key)
}

func cursorIsValid(h *Host, c *call, stack []uint64) error {
	ok, err := h.reg.IsValid(handle(stack[0]))
	if err != nil {
		return err
	}
	return writeBool(c, u32(stack[1]), ok)
}

func cursorKey(h *Host, c *call, stack []uint64) error {
	k, err := h.reg.Key(handle(stack[0]))
	if err != nil {
		return err
	}
	return writeBytes(c, u32(stack[1]), k)
}

func cursorValue(h *Host, c *call, stack []uint64) error {
	v, err := h.reg.Value(handle(stack[0]))
	if err != nil {
		return err
	}
	return writeBytes(c, u32(stack[1]), v)
}

func cursorNext(h *Host, _ *call, stack []uint64) error {
	return h.reg.Next(handle(stack[0]))
}

func batchCreate(h *Host, c *call, stack []uint64) error {
	bh, err := h.reg.BatchCreate()
	if err != nil {
		return err
	}
	if err := writeHandle(c, u32(stack[0]), bh); err != nil {
		_ = h.reg.BatchFree(bh)
		return err
	}
	return nil
}

func batchPut(h *Host, c *call, stack []uint64) error {
	key, err := readBytes(c, u32(stack[1]), u32(stack[2]))
	if err != nil {
		return err
	}
	value, err := readBytes(c, u32(stack[3]), u32(stack[4]))
	if err != nil {
		return err
	}
	return h.reg.BatchPut(handle(stack[0]), key, value)
}

func batchDelete(h *Host, c *call, stack []uint64) error {
	key, err := readBytes(c, u32(stack[1]), u32(stack[2]))
	if err != nil {
		return err
	}
	return h.reg.BatchDelete(handle(stack[0]), key)
}

func batchClear(h *Host, _ *call, stack []uint64) error {
	return h.reg.BatchClear(handle(stack[0]))
}

func batchFree(h *Host, _ *call, stack []uint64) error {
	return h.reg.BatchFree(handle(stack[0]))
}

// lastError writes the most recent error message. It does not overwrite
// the message itself on success.
func lastError(h *Host, c *call, stack []uint64) error {
	return writeBytes(c, u32(stack[0]), []byte(h.LastError()))
}
