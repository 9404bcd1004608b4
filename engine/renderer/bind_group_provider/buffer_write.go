package bind_group_provider

// BufferWrite is one queued upload into a provider's buffer. The renderer collects a
// frame's uniform writes and submits them together before encoding any pass.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Size returns the number of bytes the write covers.
func (w BufferWrite) Size() uint64 {
	return uint64(len(w.Data))
}
