package alerts

// SetSweepPageSize reduce la página del barrido para recorrer varias páginas con pocos productos.
func (e *Engine) SetSweepPageSize(n int) { e.pageSize = n }
