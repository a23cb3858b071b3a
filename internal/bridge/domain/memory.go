package domain

// MemoryPasteboard is an in-process Pasteboard. It backs tests and hosts
// that have no system clipboard; the bridge reads back what vendors write
type MemoryPasteboard struct {
	items []map[string][]byte
}

// NewMemoryPasteboard returns an empty in-process pasteboard
func NewMemoryPasteboard() *MemoryPasteboard { return &MemoryPasteboard{} }

// SetData implements Pasteboard
func (p *MemoryPasteboard) SetData(ptype string, data []byte) {
	p.items = []map[string][]byte{{ptype: data}}
}

// Data implements Pasteboard
func (p *MemoryPasteboard) Data(ptype string) ([]byte, bool) {
	for _, item := range p.items {
		if d, ok := item[ptype]; ok {
			return d, true
		}
	}
	return nil, false
}

// SetItems implements Pasteboard
func (p *MemoryPasteboard) SetItems(items []map[string][]byte) {
	p.items = items
}

// Items implements Pasteboard
func (p *MemoryPasteboard) Items() []map[string][]byte { return p.items }
