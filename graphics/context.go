package graphics

// Context is a window system surface with a current GL context. EndFrame
// presents the frame and processes pending events; it is the host's
// per-frame primitive the render loop reschedules itself on.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	EndFrame()
	GetFramebufferSize() (int, int)
}
