// Package fixtures supplies bundled video clips so the upload flow can be
// exercised without a camera or library asset. Real fixtures exist only in
// builds with the dev tag; production builds compile in a stub that returns
// nothing.
package fixtures

// Fixture is one bundled clip, materialised to a local file on load.
type Fixture struct {
	Name   string
	URI    string
	SizeMB float64
}
