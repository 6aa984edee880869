// Package transform converts coordinates between the four spaces of the
// rendering pipeline.
//
// # Spaces
//
//   - Graph: raw node coordinates as authored or produced by a layout.
//   - Framed graph: graph coordinates rescaled into the unit square by a
//     [Normalization] built from the bounding box. The shorter axis is
//     padded so the aspect ratio is preserved.
//   - Clip: [-1,1] on both axes, reached through the camera [Matrix].
//   - Viewport: pixels with the origin at the top-left corner. The y axis
//     is flipped relative to graph space.
//
// # Matrices
//
// [CameraMatrix] composes, right to left, a translation to the camera
// centre, a 1/ratio scale, a rotation and an aspect scale that accounts for
// the stage padding and the [CorrectionRatio] between graph and viewport
// aspects. Its inverse is built from the same factors in reverse order
// rather than by generic inversion.
//
// # Overrides
//
// Every conversion on a [Transformer] accepts options such as [WithState]
// or [WithViewport] to answer hypothetical queries, for example placing
// labels under the default camera, without rebuilding the live matrices.
//
//	t := transform.New()
//	t.SetFraming(g.Extent())
//	t.Update(cam.State(), transform.Dimensions{Width: 800, Height: 600}, 30)
//	p := t.GraphToViewport(transform.Point{X: 3, Y: 4})
package transform
