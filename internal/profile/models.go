package profile

// PhotoSlotCount is the number of photo tiles on the media form.
const PhotoSlotCount = 3

// PhotoSlot is one fixed photo position. The zero value is an empty slot.
// SizeMB is nil when the size is unknown (remote assets).
type PhotoSlot struct {
	URI    string
	SizeMB *float64
}

func (s PhotoSlot) Empty() bool {
	return s.URI == ""
}

// VideoSlot holds the single video position. A populated slot is either a
// picked/recorded local file or a bundled test fixture, never both.
type VideoSlot struct {
	URI           string
	SizeMB        *float64
	IsTestFixture bool
}

func (s VideoSlot) Empty() bool {
	return s.URI == ""
}

// UserInfo is the server-confirmed profile media state, fetched back for
// pre-population on the next load.
type UserInfo struct {
	UserUID   string
	Email     string
	PhotoURLs []string
	VideoURL  string
}
