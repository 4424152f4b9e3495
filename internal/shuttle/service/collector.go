package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"shuttle-bot/internal/shuttle/domain"
	"shuttle-bot/internal/shuttle/transport"
	"shuttle-bot/pkg/logger"
)

// Step is the collector's position in the creation dialogue.
type Step int

const (
	StepPlate Step = iota
	StepPhoto
	StepColor
	StepStartLocation
	StepGpsLocation
	StepEndLocation
	StepPrice
)

func (s Step) String() string {
	switch s {
	case StepPlate:
		return "plate"
	case StepPhoto:
		return "photo"
	case StepColor:
		return "color"
	case StepStartLocation:
		return "start_location"
	case StepGpsLocation:
		return "gps_location"
	case StepEndLocation:
		return "end_location"
	case StepPrice:
		return "price"
	}
	return "unknown"
}

// session is one driver's in-progress dialogue: the current step plus the
// draft accumulated so far. Destroyed on promotion or reset.
type session struct {
	step       Step
	updateOnly bool // single-field update, ends after the field is saved
	draft      domain.RideDraft
}

// next returns the step that follows the current one, skipping profile
// steps whose value the draft already carries.
func (s *session) next() Step {
	switch s.step {
	case StepPlate:
		if s.draft.PhotoRef == "" {
			return StepPhoto
		}
		fallthrough
	case StepPhoto:
		if s.draft.Color == "" {
			return StepColor
		}
		fallthrough
	case StepColor:
		return StepStartLocation
	case StepStartLocation:
		return StepGpsLocation
	case StepGpsLocation:
		return StepEndLocation
	case StepEndLocation:
		return StepPrice
	}
	return StepPrice
}

// Collector walks a driver through the fields of one ride posting. Profile
// fields already on record are skipped; whatever the driver supplies is
// committed to the profile store immediately, so an aborted dialogue keeps
// them.
type Collector struct {
	mu       sync.Mutex
	sessions map[int64]*session

	profiles *Profiles
	registry *Registry
	msgr     transport.Messenger
	drivers  map[int64]struct{}
	channel  string
	logger   logger.Logger
}

func NewCollector(
	profiles *Profiles,
	registry *Registry,
	msgr transport.Messenger,
	drivers []int64,
	channel string,
	log logger.Logger,
) *Collector {
	allowed := make(map[int64]struct{}, len(drivers))
	for _, id := range drivers {
		allowed[id] = struct{}{}
	}
	return &Collector{
		sessions: make(map[int64]*session),
		profiles: profiles,
		registry: registry,
		msgr:     msgr,
		drivers:  allowed,
		channel:  channel,
		logger:   log,
	}
}

// Authorized reports whether the identity is in the driver allowlist.
func (c *Collector) Authorized(driverID int64) bool {
	_, ok := c.drivers[driverID]
	return ok
}

// BeginRide starts the creation dialogue. The entry is rejected outright
// for non-drivers and for drivers who already own an open ride; no state
// is entered in either case.
func (c *Collector) BeginRide(ctx context.Context, driver domain.User) error {
	if !c.Authorized(driver.ID) {
		c.send(ctx, driver.ID, "❌ Not authorized.", transport.MenuNone)
		return domain.ErrUnauthorized
	}
	if c.registry.HasActive(driver.ID) {
		c.send(ctx, driver.ID, "❌ You already have an active ride.", transport.MenuDriverPanel)
		return domain.ErrAlreadyActive
	}

	s := &session{}
	if p, ok := c.profiles.Get(driver.ID); ok {
		s.draft.FromProfile(&p)
	}
	s.step = entryStep(&s.draft)

	c.mu.Lock()
	c.sessions[driver.ID] = s
	step := s.step
	c.mu.Unlock()

	c.logger.WithFields(logger.LogFields{
		"driver_id": driver.ID,
		"step":      step.String(),
	}).Info("dialogue_started", "Ride creation dialogue entered")

	c.send(ctx, driver.ID, prompt(step, false), menuFor(step))
	return nil
}

// BeginFieldUpdate forces re-collection of a single profile field (plate
// or photo) without running the rest of the sequence.
func (c *Collector) BeginFieldUpdate(ctx context.Context, driver domain.User, field domain.ProfileField) error {
	if !c.Authorized(driver.ID) {
		c.send(ctx, driver.ID, "❌ Not authorized.", transport.MenuNone)
		return domain.ErrUnauthorized
	}

	var step Step
	switch field {
	case domain.FieldPlate:
		step = StepPlate
	case domain.FieldPhoto:
		step = StepPhoto
	default:
		return domain.ErrInvalidField
	}

	c.mu.Lock()
	c.sessions[driver.ID] = &session{step: step, updateOnly: true}
	c.mu.Unlock()

	c.send(ctx, driver.ID, prompt(step, true), transport.MenuNone)
	return nil
}

// Reset aborts any in-progress dialogue. Fields already committed to the
// profile store are kept; the draft is discarded.
func (c *Collector) Reset(driverID int64) {
	c.mu.Lock()
	_, had := c.sessions[driverID]
	delete(c.sessions, driverID)
	c.mu.Unlock()

	if had {
		c.logger.WithFields(logger.LogFields{
			"driver_id": driverID,
		}).Debug("dialogue_reset", "In-progress dialogue aborted")
	}
}

type outgoing struct {
	text string
	menu transport.ReplyMenu
}

// HandleText feeds a text message into the dialogue. Returns false when
// the sender has no session, so the caller can treat the text as ordinary
// chatter.
func (c *Collector) HandleText(ctx context.Context, from domain.User, text string) bool {
	c.mu.Lock()
	s, ok := c.sessions[from.ID]
	if !ok {
		c.mu.Unlock()
		return false
	}

	var replies []outgoing
	var promoted *domain.RideDraft

	switch s.step {
	case StepPlate:
		c.setProfileField(from.ID, domain.FieldPlate, text)
		s.draft.Plate = text
		if s.updateOnly {
			delete(c.sessions, from.ID)
			replies = append(replies, outgoing{"✅ Plate saved.", transport.MenuDriverPanel})
		} else {
			replies = append(replies, outgoing{"✅ Plate saved.", transport.MenuNone})
			replies = advance(s, replies)
		}

	case StepPhoto:
		// Wrong input type for this step; repeat the prompt.
		replies = append(replies, outgoing{prompt(StepPhoto, s.updateOnly), transport.MenuNone})

	case StepColor:
		c.setProfileField(from.ID, domain.FieldColor, text)
		s.draft.Color = text
		replies = advance(s, replies)

	case StepStartLocation:
		s.draft.StartName = text
		replies = advance(s, replies)

	case StepGpsLocation:
		if strings.EqualFold(strings.TrimSpace(text), "skip") {
			s.draft.HasCoords = false
			replies = advance(s, replies)
		} else {
			replies = append(replies, outgoing{prompt(StepGpsLocation, false), transport.MenuShareLocation})
		}

	case StepEndLocation:
		s.draft.EndName = text
		replies = advance(s, replies)

	case StepPrice:
		s.draft.Price = text
		draft := s.draft
		promoted = &draft
		// Destroying the session before the publish means a duplicate
		// price message cannot promote the draft twice.
		delete(c.sessions, from.ID)
	}
	c.mu.Unlock()

	for _, r := range replies {
		c.send(ctx, from.ID, r.text, r.menu)
	}
	if promoted != nil {
		c.promote(ctx, from, promoted)
	}
	return true
}

// HandlePhoto feeds an image reference into the dialogue.
func (c *Collector) HandlePhoto(ctx context.Context, from domain.User, photoRef string) bool {
	c.mu.Lock()
	s, ok := c.sessions[from.ID]
	if !ok || s.step != StepPhoto {
		c.mu.Unlock()
		return false
	}

	c.setProfileField(from.ID, domain.FieldPhoto, photoRef)
	s.draft.PhotoRef = photoRef

	var replies []outgoing
	if s.updateOnly {
		delete(c.sessions, from.ID)
		replies = append(replies, outgoing{"✅ Photo saved.", transport.MenuDriverPanel})
	} else {
		replies = append(replies, outgoing{"✅ Photo saved.", transport.MenuNone})
		replies = advance(s, replies)
	}
	c.mu.Unlock()

	for _, r := range replies {
		c.send(ctx, from.ID, r.text, r.menu)
	}
	return true
}

// HandleLocation feeds a GPS coordinate pair into the dialogue.
func (c *Collector) HandleLocation(ctx context.Context, from domain.User, lat, lon float64) bool {
	c.mu.Lock()
	s, ok := c.sessions[from.ID]
	if !ok || s.step != StepGpsLocation {
		c.mu.Unlock()
		return false
	}

	s.draft.Latitude = lat
	s.draft.Longitude = lon
	s.draft.HasCoords = true
	s.step = StepEndLocation
	c.mu.Unlock()

	c.send(ctx, from.ID, "Location received ✅\nEnter destination:", transport.MenuDriverPanel)
	return true
}

// promote publishes the completed draft through the registry and tells the
// driver how it went. Runs outside the session lock.
func (c *Collector) promote(ctx context.Context, driver domain.User, draft *domain.RideDraft) {
	postingID, err := c.registry.Create(ctx, driver.ID, draft)
	if err != nil {
		c.logger.WithFields(logger.LogFields{
			"driver_id": driver.ID,
		}).Error("ride_create_failed", err)

		if errors.Is(err, domain.ErrAlreadyActive) {
			c.send(ctx, driver.ID, "❌ You already have an active ride.", transport.MenuDriverPanel)
			return
		}
		c.send(ctx, driver.ID, "⚠️ Could not post the ride. Please try again.", transport.MenuDriverPanel)
		return
	}

	c.send(ctx, driver.ID, fmt.Sprintf("✅ Ride posted to %s!", c.channel), transport.MenuDriverPanel)
	c.sendInline(ctx, driver.ID,
		"Click below when you are ready to move. This will remove the post from the channel:",
		transport.StartTripButton(postingID))
}

// advance moves the session to the next step and queues its prompt.
func advance(s *session, replies []outgoing) []outgoing {
	s.step = s.next()
	return append(replies, outgoing{prompt(s.step, false), menuFor(s.step)})
}

// entryStep applies the reuse rule: skip straight to the first missing
// profile field, or to the start-location prompt if the profile is
// complete.
func entryStep(d *domain.RideDraft) Step {
	switch {
	case d.Plate == "":
		return StepPlate
	case d.PhotoRef == "":
		return StepPhoto
	case d.Color == "":
		return StepColor
	}
	return StepStartLocation
}

func prompt(step Step, update bool) string {
	switch step {
	case StepPlate:
		if update {
			return "Enter new plate number:"
		}
		return "Enter plate number:"
	case StepPhoto:
		if update {
			return "Send new vehicle photo:"
		}
		return "Send vehicle photo:"
	case StepColor:
		return "Enter car color:"
	case StepStartLocation:
		return "Enter start location name:"
	case StepGpsLocation:
		return "Share your current GPS location, or type \"skip\" to continue without it:"
	case StepEndLocation:
		return "Enter destination:"
	case StepPrice:
		return "Enter price (ETB):"
	}
	return ""
}

func menuFor(step Step) transport.ReplyMenu {
	switch step {
	case StepGpsLocation:
		return transport.MenuShareLocation
	case StepEndLocation:
		// Restore the driver panel after the one-time location keyboard.
		return transport.MenuDriverPanel
	}
	return transport.MenuNone
}

func (c *Collector) setProfileField(driverID int64, field domain.ProfileField, value string) {
	if err := c.profiles.SetField(driverID, field, value); err != nil {
		c.logger.WithFields(logger.LogFields{
			"driver_id": driverID,
			"field":     string(field),
		}).Error("profile_set_failed", err)
	}
}

// send delivers a prompt or ack. Delivery failures on dialogue messages
// are transient-ignorable: log and move on.
func (c *Collector) send(ctx context.Context, to int64, text string, menu transport.ReplyMenu) {
	if err := c.msgr.SendMessage(ctx, to, text, menu); err != nil {
		c.logger.WithFields(logger.LogFields{
			"driver_id": to,
		}).Error("dialogue_send_failed", err)
	}
}

func (c *Collector) sendInline(ctx context.Context, to int64, text string, kb transport.ButtonGrid) {
	if err := c.msgr.SendInline(ctx, to, text, kb); err != nil {
		c.logger.WithFields(logger.LogFields{
			"driver_id": to,
		}).Error("dialogue_send_failed", err)
	}
}
