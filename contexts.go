package platlayer

// CreateContext negotiates a pixel format for the window and creates an
// OpenGL context.
func (p *Platform) CreateContext(win WindowID, format PixelFormat, settings ContextSettings) (ContextID, error) {
	p.check("platlayer.CreateContext")
	return p.contexts.Create(win, format, settings)
}

// CreateDefaultContext creates a context with the configured pixel_format
// and context sections.
func (p *Platform) CreateDefaultContext(win WindowID) (ContextID, error) {
	p.check("platlayer.CreateDefaultContext")
	return p.contexts.Create(win, p.cfg.PixelFormat, p.cfg.ContextSettings())
}

// MakeCurrent binds the context on the calling OS thread. The caller must
// hold runtime.LockOSThread.
func (p *Platform) MakeCurrent(id ContextID) error {
	p.check("platlayer.MakeCurrent")
	return p.contexts.MakeCurrent(id)
}

// MakeNotCurrent releases whatever context is current on the calling thread.
func (p *Platform) MakeNotCurrent() error {
	p.check("platlayer.MakeNotCurrent")
	return p.contexts.MakeNotCurrent()
}

// Present swaps the buffers of the context's window.
func (p *Platform) Present(id ContextID) error {
	p.check("platlayer.Present")
	return p.contexts.Present(id)
}

// SetSwapInterval sets how many vertical blanks Present waits for. Zero
// disables vsync.
func (p *Platform) SetSwapInterval(id ContextID, interval int) error {
	p.check("platlayer.SetSwapInterval")
	return p.contexts.SetSwapInterval(id, interval)
}

// DestroyContext releases a context. Destroying a context that is still
// current panics.
func (p *Platform) DestroyContext(id ContextID) error {
	p.check("platlayer.DestroyContext")
	return p.contexts.Destroy(id)
}

// Context returns a snapshot of a live context.
func (p *Platform) Context(id ContextID) (Context, error) {
	p.check("platlayer.Context")
	return p.contexts.Context(id)
}

// Contexts returns every context ordered by id.
func (p *Platform) Contexts() []Context {
	p.check("platlayer.Contexts")
	return p.contexts.Contexts()
}
