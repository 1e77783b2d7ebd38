// Package framesrc adapts recorded footage to the pipeline's FrameSource.
// Frames are still images in one directory, decoded in name order and
// cropped to the layout's named regions. Counter readings recorded by an
// external reader can be replayed from CSV.
package framesrc
