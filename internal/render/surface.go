package render

// Surface is the minimal contract with the rendering collaborator: accept
// the latest point buffer, and signal when the viewer has gone away. The
// session loop publishes once per poll cycle and polls Done at iteration
// boundaries, exactly like the shutdown signal.
type Surface interface {
	// Publish replaces the surface's view of the point cloud. The slice
	// is only valid during the call; implementations copy what they keep.
	Publish(points []Point)

	// Done is closed when the surface can no longer present frames (the
	// viewer closed, or the surface failed) and scanning should stop.
	Done() <-chan struct{}
}
