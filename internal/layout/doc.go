// Package layout is the geometry model of a letter template: the fixed
// document page, writable zones, the singleton fixed elements and the
// verification symbol placement, plus the pure operations that keep every
// placed element inside the page (clamp, snap, resize).
//
// All coordinates are integers in document space (points on a 595×842 A4
// page), independent of the zoom used by an editor.
package layout
