// Package pipeline drives the media form flow end to end: permission check,
// asset selection per slot, the size gate, the direct video upload and the
// final profile submission. One Pipeline instance owns one screen session's
// slot state; nothing here survives the session except what the backend
// stores.
package pipeline

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/bulatminnakhmetov/svidanka-media/internal/fixtures"
	"github.com/bulatminnakhmetov/svidanka-media/internal/permission"
	"github.com/bulatminnakhmetov/svidanka-media/internal/picker"
	"github.com/bulatminnakhmetov/svidanka-media/internal/profile"
	"github.com/bulatminnakhmetov/svidanka-media/internal/session"
	"github.com/bulatminnakhmetov/svidanka-media/internal/sizecheck"
	"github.com/bulatminnakhmetov/svidanka-media/internal/submission"
	"github.com/bulatminnakhmetov/svidanka-media/internal/uploader"
)

// Errors
var (
	ErrPermissionDenied = errors.New("pipeline: permission denied")
	ErrAborted          = errors.New("pipeline: submission canceled by user")
	ErrInvalidSlot      = errors.New("pipeline: invalid slot index")
)

// VideoUploader runs one direct-to-storage upload attempt.
type VideoUploader interface {
	Upload(ctx context.Context, userUID, path string) (*uploader.Result, error)
}

// Submitter performs the profile update call.
type Submitter interface {
	Submit(ctx context.Context, p submission.Payload) error
}

// ProfileFetcher returns the server-confirmed media state.
type ProfileFetcher interface {
	Get(ctx context.Context, uid string) (*profile.UserInfo, error)
}

// Deps wires a pipeline instance. Profiles and Fixtures are optional.
type Deps struct {
	Session   *session.Session
	Gate      permission.Gate
	Picker    picker.Picker
	Confirmer sizecheck.Confirmer
	Uploader  VideoUploader
	Submitter Submitter
	Profiles  ProfileFetcher
	Fixtures  []fixtures.Fixture

	ThresholdMB float64
	Log         zerolog.Logger
}

// Pipeline holds the in-memory slot state for one media form session.
type Pipeline struct {
	deps Deps
	log  zerolog.Logger

	photos [profile.PhotoSlotCount]profile.PhotoSlot
	video  profile.VideoSlot
}

func New(deps Deps) (*Pipeline, error) {
	if !deps.Session.Authenticated() {
		return nil, session.ErrNotAuthenticated
	}
	if deps.Gate == nil || deps.Picker == nil || deps.Confirmer == nil || deps.Uploader == nil || deps.Submitter == nil {
		return nil, errors.New("pipeline: missing dependency")
	}
	if deps.ThresholdMB <= 0 {
		deps.ThresholdMB = sizecheck.DefaultThresholdMB
	}
	return &Pipeline{
		deps: deps,
		log:  deps.Log.With().Str("component", "pipeline").Logger(),
	}, nil
}

// LoadExisting seeds the slots from the profile endpoint so the form shows
// what the backend already stored. Remote assets have no known size.
func (p *Pipeline) LoadExisting(ctx context.Context) error {
	if p.deps.Profiles == nil {
		return nil
	}

	info, err := p.deps.Profiles.Get(ctx, p.deps.Session.UserUID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return nil
		}
		return err
	}

	for i := range p.photos {
		p.photos[i] = profile.PhotoSlot{}
		if i < len(info.PhotoURLs) && info.PhotoURLs[i] != "" {
			p.photos[i] = profile.PhotoSlot{URI: info.PhotoURLs[i]}
		}
	}
	p.video = profile.VideoSlot{}
	if info.VideoURL != "" {
		p.video = profile.VideoSlot{URI: info.VideoURL}
	}

	p.log.Debug().Int("photos", len(info.PhotoURLs)).Bool("video", info.VideoURL != "").Msg("slots seeded from server state")
	return nil
}

// Photos returns the current photo slots.
func (p *Pipeline) Photos() [profile.PhotoSlotCount]profile.PhotoSlot {
	return p.photos
}

// Video returns the current video slot.
func (p *Pipeline) Video() profile.VideoSlot {
	return p.video
}

// AddPhoto fills one photo slot from the library. A canceled selection is a
// no-op, not an error.
func (p *Pipeline) AddPhoto(ctx context.Context, slot int) error {
	if slot < 0 || slot >= profile.PhotoSlotCount {
		return ErrInvalidSlot
	}

	granted, err := p.deps.Gate.Request(ctx, permission.KindLibrary)
	if err != nil {
		return err
	}
	if !granted {
		return ErrPermissionDenied
	}

	asset, err := p.deps.Picker.PickImage(ctx)
	if err != nil {
		if errors.Is(err, picker.ErrCanceled) {
			p.log.Debug().Int("slot", slot).Msg("photo selection canceled")
			return nil
		}
		return err
	}

	p.photos[slot] = profile.PhotoSlot{URI: asset.URI, SizeMB: asset.SizeMB}
	return nil
}

// RemovePhoto clears one photo slot.
func (p *Pipeline) RemovePhoto(slot int) error {
	if slot < 0 || slot >= profile.PhotoSlotCount {
		return ErrInvalidSlot
	}
	p.photos[slot] = profile.PhotoSlot{}
	return nil
}

// AddVideo fills the video slot from the library or, with record set, the
// camera. When the user cancels, the bundled test clips are offered as a
// substitute; accepting one marks the slot as a fixture.
func (p *Pipeline) AddVideo(ctx context.Context, record bool) error {
	kind := permission.KindLibrary
	pick := p.deps.Picker.PickVideo
	if record {
		kind = permission.KindCamera
		pick = p.deps.Picker.RecordVideo
	}

	granted, err := p.deps.Gate.Request(ctx, kind)
	if err != nil {
		return err
	}
	if !granted {
		return ErrPermissionDenied
	}

	asset, err := pick(ctx)
	if err != nil {
		if errors.Is(err, picker.ErrCanceled) {
			return p.offerFixture(ctx)
		}
		return err
	}

	p.video = profile.VideoSlot{URI: asset.URI, SizeMB: asset.SizeMB}
	return nil
}

// offerFixture fills the video slot with a bundled clip if the user wants
// one. Without fixtures (production builds) cancellation stays a no-op.
func (p *Pipeline) offerFixture(ctx context.Context) error {
	if len(p.deps.Fixtures) == 0 {
		return nil
	}

	ok, err := p.deps.Confirmer.Confirm(ctx, "No video selected. Use a bundled test clip instead?")
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	f := p.deps.Fixtures[0]
	size := f.SizeMB
	p.video = profile.VideoSlot{URI: f.URI, SizeMB: &size, IsTestFixture: true}
	p.log.Debug().Str("fixture", f.Name).Msg("video slot filled with test fixture")
	return nil
}

// RemoveVideo clears the video slot.
func (p *Pipeline) RemoveVideo() {
	p.video = profile.VideoSlot{}
}

// TotalSizeMB is the aggregate size of all known local media.
func (p *Pipeline) TotalSizeMB() float64 {
	photoSizes := make([]*float64, 0, profile.PhotoSlotCount)
	for _, slot := range p.photos {
		photoSizes = append(photoSizes, slot.SizeMB)
	}
	return sizecheck.Total(p.video.SizeMB, photoSizes)
}

// Submit runs the size gate, the video upload and the profile update.
//
// The upload failure policy is deliberate: a failed video upload surfaces a
// warning and the video is omitted from the submission. The raw bytes are
// never embedded into the profile call as a fallback.
func (p *Pipeline) Submit(ctx context.Context) error {
	total := p.TotalSizeMB()
	ok, err := sizecheck.ConfirmIfLarge(ctx, p.deps.Confirmer, total, p.deps.ThresholdMB)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAborted
	}

	videoURL := ""
	switch {
	case p.video.Empty():
		// nothing to upload
	case picker.IsRemote(p.video.URI):
		// already on the server from a previous session; pass through
		videoURL = p.video.URI
	default:
		res, uploadErr := p.deps.Uploader.Upload(ctx, p.deps.Session.UserUID, p.video.URI)
		if uploadErr != nil {
			p.log.Warn().Err(uploadErr).Msg("video upload failed, submitting without video")
		} else {
			videoURL = res.VideoURL
		}
	}

	payload := submission.Payload{
		UserUID:   p.deps.Session.UserUID,
		UserEmail: p.deps.Session.Email,
		Photos:    p.photos[:],
		VideoURL:  videoURL,
	}
	// The payload is transient: built here, discarded after the call
	return p.deps.Submitter.Submit(ctx, payload)
}
